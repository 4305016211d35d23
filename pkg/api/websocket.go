package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins - configure properly in production
	},
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // Message type: "new", "move", "legal", "watch", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string      `json:"type"`              // Response type: "result", "state", "error", "pong"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse

	mu     sync.Mutex
	closed bool
}

// WebSocket handles WebSocket connections at /api/ws.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &WSClient{
		conn:     conn,
		handlers: h,
		sendChan: make(chan WSResponse, 256),
	}

	go client.writePump()
	client.readPump()
}

// readPump reads messages from the WebSocket connection.
func (c *WSClient) readPump() {
	defer func() {
		c.handlers.watchers.dropClient(c)
		c.closeSend()
		c.conn.Close()
	}()

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		c.handleMessage(msg)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *WSClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// send queues a reply. It runs on the readPump goroutine, always before
// closeSend, so it may write to the channel directly.
func (c *WSClient) send(resp WSResponse) {
	c.sendChan <- resp
}

// push queues a frame from outside the read loop (watch notifications).
// A slow client drops the frame rather than blocking the notifier.
func (c *WSClient) push(resp WSResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.sendChan <- resp:
	default:
	}
}

func (c *WSClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.sendChan)
	}
}

// handleMessage dispatches a message to the appropriate handler.
func (c *WSClient) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "ping":
		c.send(WSResponse{Type: "pong", ID: msg.ID})
	case "new":
		c.handleNew(msg)
	case "move":
		c.handleMove(msg)
	case "pass":
		c.handlePass(msg)
	case "legal":
		c.handleLegal(msg)
	case "state":
		c.handleState(msg)
	case "score":
		c.handleScore(msg)
	case "sgf":
		c.handleSGF(msg)
	case "watch":
		c.handleWatch(msg)
	case "unwatch":
		c.handleUnwatch(msg)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

// bind decodes a message payload into v.
func (c *WSClient) bind(msg WSMessage, v interface{}) bool {
	if len(msg.Payload) == 0 {
		c.sendError(msg.ID, "missing payload")
		return false
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.sendError(msg.ID, "invalid payload: "+err.Error())
		return false
	}
	return true
}

// reply sends either a result frame or the operation's error.
func (c *WSClient) reply(id string, payload interface{}, aerr *apiError) {
	if aerr != nil {
		c.sendError(id, aerr.message)
		return
	}
	c.send(WSResponse{Type: "result", ID: id, Payload: payload})
}

func (c *WSClient) sendError(id, message string) {
	c.send(WSResponse{Type: "error", ID: id, Error: message})
}

func (c *WSClient) handleNew(msg WSMessage) {
	var req NewGameRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.sendError(msg.ID, "invalid payload: "+err.Error())
			return
		}
	}
	state, aerr := c.handlers.startSession(req)
	c.reply(msg.ID, state, aerr)
}

func (c *WSClient) handleMove(msg WSMessage) {
	var req MoveRequest
	if !c.bind(msg, &req) {
		return
	}
	resp, aerr := c.handlers.playMove(req.SessionID, req.Move)
	c.reply(msg.ID, resp, aerr)
}

func (c *WSClient) handlePass(msg WSMessage) {
	var req SessionRequest
	if !c.bind(msg, &req) {
		return
	}
	resp, aerr := c.handlers.playMove(req.SessionID, "pass")
	c.reply(msg.ID, resp, aerr)
}

func (c *WSClient) handleLegal(msg WSMessage) {
	var req LegalRequest
	if !c.bind(msg, &req) {
		return
	}
	resp, aerr := c.handlers.legalMoves(req)
	c.reply(msg.ID, resp, aerr)
}

func (c *WSClient) handleState(msg WSMessage) {
	var req SessionRequest
	if !c.bind(msg, &req) {
		return
	}
	s, aerr := c.handlers.getSession(req.SessionID)
	if aerr != nil {
		c.sendError(msg.ID, aerr.message)
		return
	}
	c.reply(msg.ID, s.State(), nil)
}

func (c *WSClient) handleScore(msg WSMessage) {
	var req SessionRequest
	if !c.bind(msg, &req) {
		return
	}
	resp, aerr := c.handlers.scoreSession(req.SessionID)
	c.reply(msg.ID, resp, aerr)
}

func (c *WSClient) handleSGF(msg WSMessage) {
	var req SessionRequest
	if !c.bind(msg, &req) {
		return
	}
	resp, aerr := c.handlers.sessionSGF(req.SessionID)
	c.reply(msg.ID, resp, aerr)
}

// handleWatch subscribes the client to state pushes for a session. The
// result frame carries the current state so the watcher starts in sync.
func (c *WSClient) handleWatch(msg WSMessage) {
	var req SessionRequest
	if !c.bind(msg, &req) {
		return
	}
	s, aerr := c.handlers.getSession(req.SessionID)
	if aerr != nil {
		c.sendError(msg.ID, aerr.message)
		return
	}
	c.handlers.watchers.watch(s.ID, c)
	c.reply(msg.ID, s.State(), nil)
}

func (c *WSClient) handleUnwatch(msg WSMessage) {
	var req SessionRequest
	if !c.bind(msg, &req) {
		return
	}
	c.handlers.watchers.unwatch(req.SessionID, c)
	c.reply(msg.ID, map[string]any{"watching": false, "session_id": req.SessionID}, nil)
}

// watchRegistry maps session IDs to the WebSocket clients watching them.
type watchRegistry struct {
	mu sync.RWMutex
	m  map[string]map[*WSClient]struct{}
}

func newWatchRegistry() *watchRegistry {
	return &watchRegistry{m: make(map[string]map[*WSClient]struct{})}
}

func (r *watchRegistry) watch(id string, c *WSClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.m[id]
	if !ok {
		set = make(map[*WSClient]struct{})
		r.m[id] = set
	}
	set[c] = struct{}{}
}

func (r *watchRegistry) unwatch(id string, c *WSClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.m[id]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.m, id)
		}
	}
}

// dropClient removes a disconnected client from every session.
func (r *watchRegistry) dropClient(c *WSClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, set := range r.m {
		delete(set, c)
		if len(set) == 0 {
			delete(r.m, id)
		}
	}
}

// dropSession removes all watchers of a deleted session.
func (r *watchRegistry) dropSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}

// notify pushes a frame to every watcher of a session.
func (r *watchRegistry) notify(id string, resp WSResponse) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.m[id] {
		c.push(resp)
	}
}
