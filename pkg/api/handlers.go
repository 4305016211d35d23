package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yourusername/goengine/internal/positionid"
	"github.com/yourusername/goengine/internal/storage"
	"github.com/yourusername/goengine/pkg/engine"
	"github.com/yourusername/goengine/pkg/game"
)

// Handlers holds the HTTP handlers and the state they serve: the live
// session registry, the optional game archive, the worker pool and the
// legal-move cache.
type Handlers struct {
	sessions *Sessions
	store    *storage.Store
	pool     *WorkerPool
	moves    *MoveCache
	watchers *watchRegistry
	version  string
}

// NewHandlers creates a new Handlers instance without a worker pool.
// store may be nil; the archive endpoints then report 503.
func NewHandlers(store *storage.Store, version string) *Handlers {
	return NewHandlersWithPool(store, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(store *storage.Store, version string, pool *WorkerPool) *Handlers {
	return &Handlers{
		sessions: NewSessions(),
		store:    store,
		pool:     pool,
		moves:    NewMoveCache(DefaultMoveCacheSize),
		watchers: newWatchRegistry(),
		version:  version,
	}
}

// Sessions returns the live session registry.
func (h *Handlers) Sessions() *Sessions { return h.sessions }

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// apiError pairs a transport status and a stable machine code with the
// message, so the REST and WebSocket fronts can share the operation
// implementations below.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func writeAPIError(w http.ResponseWriter, e *apiError) {
	writeError(w, e.status, e.message, e.code)
}

// acquireFast takes a fast pool slot if a pool is configured. It reports
// whether the request may proceed; on false the 503 is already written.
func (h *Handlers) acquireFast(w http.ResponseWriter, r *http.Request) bool {
	if h.pool == nil {
		return true
	}
	if err := h.pool.AcquireFast(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return false
	}
	return true
}

func (h *Handlers) releaseFast() {
	if h.pool != nil {
		h.pool.ReleaseFast()
	}
}

// acquireSlow is acquireFast for the slow lane (archive scans, replays).
func (h *Handlers) acquireSlow(w http.ResponseWriter, r *http.Request) bool {
	if h.pool == nil {
		return true
	}
	if err := h.pool.AcquireSlow(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return false
	}
	return true
}

func (h *Handlers) releaseSlow() {
	if h.pool != nil {
		h.pool.ReleaseSlow()
	}
}

// archive returns the store, or writes a 503 and returns nil when the
// server runs without one.
func (h *Handlers) archive(w http.ResponseWriter) *storage.Store {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured", "ARCHIVE_UNAVAILABLE")
		return nil
	}
	return h.store
}

// ============================================================================
// Shared operations (REST + WebSocket)
// ============================================================================

// getSession resolves a session ID.
func (h *Handlers) getSession(id string) (*Session, *apiError) {
	if id == "" {
		return nil, &apiError{http.StatusBadRequest, "MISSING_SESSION", "session_id is required"}
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil, &apiError{http.StatusNotFound, "SESSION_NOT_FOUND", "no session " + id}
	}
	return s, nil
}

// startSession creates and registers a session from a request.
func (h *Handlers) startSession(req NewGameRequest) (SessionResponse, *apiError) {
	width := req.Width
	if width == 0 {
		width = 19
	}
	height := req.Height
	if height == 0 {
		height = width
	}
	komi := game.DefaultKomi
	if req.Komi != nil {
		komi = *req.Komi
	}

	s, err := StartSession(width, height, req.Handicap, komi, req.Black, req.White)
	if err != nil {
		return SessionResponse{}, &apiError{http.StatusBadRequest, "INVALID_GAME", err.Error()}
	}
	h.sessions.Add(s)
	return s.State(), nil
}

// playMove applies one move (vertex or "pass") to a session.
func (h *Handlers) playMove(sessionID, vertex string) (MoveResponse, *apiError) {
	s, aerr := h.getSession(sessionID)
	if aerr != nil {
		return MoveResponse{}, aerr
	}
	if strings.TrimSpace(vertex) == "" {
		return MoveResponse{}, &apiError{http.StatusBadRequest, "INVALID_MOVE", "move is required"}
	}
	width, height := s.Dims()
	at, err := engine.ParseVertex(vertex, width, height)
	if err != nil {
		return MoveResponse{}, &apiError{http.StatusBadRequest, "INVALID_MOVE", err.Error()}
	}

	verdict, state, err := s.Play(at)
	if err != nil {
		return MoveResponse{}, &apiError{http.StatusBadRequest, "GAME_ENDED", "game already ended"}
	}
	if verdict.IsLegal() {
		h.watchers.notify(s.ID, WSResponse{Type: "state", Payload: state})
	}
	return MoveResponse{
		Verdict:         verdict.String(),
		Legal:           verdict.IsLegal(),
		SessionResponse: state,
	}, nil
}

// legalMoves enumerates legal moves for a session or a bare position.
// Bare positions have no move history, so their enumerations are safe to
// memoize in the move cache; session queries always run fresh.
func (h *Handlers) legalMoves(req LegalRequest) (LegalResponse, *apiError) {
	color := engine.Empty
	switch strings.ToLower(strings.TrimSpace(req.ToMove)) {
	case "":
	case "b", "black":
		color = engine.Black
	case "w", "white":
		color = engine.White
	default:
		return LegalResponse{}, &apiError{http.StatusBadRequest, "INVALID_COLOR", fmt.Sprintf("bad to_move %q", req.ToMove)}
	}

	if req.SessionID != "" {
		s, aerr := h.getSession(req.SessionID)
		if aerr != nil {
			return LegalResponse{}, aerr
		}
		resolved, moves := s.LegalMoves(color)
		return legalResponse(resolved, moves, false), nil
	}

	if req.Position == "" {
		return LegalResponse{}, &apiError{http.StatusBadRequest, "MISSING_POSITION", "session_id or position is required"}
	}
	b, err := positionid.BoardFromPositionID(req.Position)
	if err != nil {
		return LegalResponse{}, &apiError{http.StatusBadRequest, "INVALID_POSITION", err.Error()}
	}
	if color == engine.Empty {
		color = engine.Black
	}

	key := MoveKey{
		Fingerprint: b.Fingerprint(),
		Width:       b.Width(),
		Height:      b.Height(),
		Color:       color,
	}
	moves, slot := h.moves.Lookup(key)
	cached := slot == CacheHit
	if !cached {
		g := engine.NewGameFromBoard(b, color)
		moves = g.LegalMoves(color)
		h.moves.Add(key, moves, slot)
	}
	return legalResponse(color, moves, cached), nil
}

func legalResponse(color engine.Content, moves []engine.Coord, cached bool) LegalResponse {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.Vertex()
	}
	return LegalResponse{
		ToMove: color.String(),
		Moves:  names,
		Count:  len(names),
		Cached: cached,
	}
}

// scoreSession scores a session, entering scoring mode if necessary.
func (h *Handlers) scoreSession(id string) (ScoreResponse, *apiError) {
	s, aerr := h.getSession(id)
	if aerr != nil {
		return ScoreResponse{}, aerr
	}
	resp := s.Score()
	h.watchers.notify(s.ID, WSResponse{Type: "state", Payload: s.State()})
	return resp, nil
}

// toggleDead flips the dead flag of the group at a vertex and rescores.
func (h *Handlers) toggleDead(req DeadRequest) (ScoreResponse, *apiError) {
	s, aerr := h.getSession(req.SessionID)
	if aerr != nil {
		return ScoreResponse{}, aerr
	}
	width, height := s.Dims()
	at, err := engine.ParseVertex(req.Vertex, width, height)
	if err != nil {
		return ScoreResponse{}, &apiError{http.StatusBadRequest, "INVALID_VERTEX", err.Error()}
	}
	if at.IsPass() {
		return ScoreResponse{}, &apiError{http.StatusBadRequest, "INVALID_VERTEX", "pass names no group"}
	}
	resp, err := s.ToggleDead(at)
	if err != nil {
		return ScoreResponse{}, &apiError{http.StatusBadRequest, "EMPTY_POINT", err.Error()}
	}
	h.watchers.notify(s.ID, WSResponse{Type: "state", Payload: s.State()})
	return resp, nil
}

// sessionSGF renders a session as SGF text.
func (h *Handlers) sessionSGF(id string) (SGFResponse, *apiError) {
	s, aerr := h.getSession(id)
	if aerr != nil {
		return SGFResponse{}, aerr
	}
	text, err := s.SGF()
	if err != nil {
		return SGFResponse{}, &apiError{http.StatusInternalServerError, "EXPORT_FAILED", err.Error()}
	}
	return SGFResponse{SessionID: s.ID, SGF: text}, nil
}

// loadSGF imports SGF text into a new session.
func (h *Handlers) loadSGF(req LoadRequest) (SessionResponse, *apiError) {
	if strings.TrimSpace(req.SGF) == "" {
		return SessionResponse{}, &apiError{http.StatusBadRequest, "MISSING_SGF", "sgf is required"}
	}
	rec, err := game.ImportSGF(strings.NewReader(req.SGF))
	if err != nil {
		return SessionResponse{}, &apiError{http.StatusBadRequest, "INVALID_SGF", err.Error()}
	}
	s, err := LoadSession(rec)
	if err != nil {
		return SessionResponse{}, &apiError{http.StatusBadRequest, "INVALID_SGF", err.Error()}
	}
	h.sessions.Add(s)
	return s.State(), nil
}

// ============================================================================
// REST Handlers
// ============================================================================

// Health handles GET /api/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	var pool *PoolStats
	if h.pool != nil {
		stats := h.pool.Stats()
		pool = &stats
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Ready:    h.store != nil,
		Sessions: h.sessions.Len(),
		Pool:     pool,
	})
}

// Pool handles GET /api/pool: worker pool and move cache counters.
func (h *Handlers) Pool(w http.ResponseWriter, r *http.Request) {
	var pool PoolStats
	if h.pool != nil {
		pool = h.pool.Stats()
	}
	writeJSON(w, http.StatusOK, PoolResponse{
		Pool:  pool,
		Cache: h.moves.Stats(),
	})
}

// NewGame handles POST /api/new: it creates a session.
func (h *Handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req NewGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	state, aerr := h.startSession(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Move handles POST /api/move: it plays one move in a session.
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	resp, aerr := h.playMove(req.SessionID, req.Move)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Pass handles POST /api/pass: it passes for the side to move.
func (h *Handlers) Pass(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	resp, aerr := h.playMove(req.SessionID, "pass")
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /api/session/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, aerr := h.getSession(chi.URLParam(r, "id"))
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// DeleteSession handles DELETE /api/session/{id}. Watchers of the
// session get a closing frame before their subscription is dropped.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Remove(id) {
		writeError(w, http.StatusNotFound, "no session "+id, "SESSION_NOT_FOUND")
		return
	}
	h.watchers.notify(id, WSResponse{Type: "closed", Payload: SessionRequest{SessionID: id}})
	h.watchers.dropSession(id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "session_id": id})
}

// Legal handles POST /api/legal.
func (h *Handlers) Legal(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req LegalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	resp, aerr := h.legalMoves(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Score handles POST /api/score: it puts a session into scoring mode
// and returns the territory count.
func (h *Handlers) Score(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	resp, aerr := h.scoreSession(req.SessionID)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Dead handles POST /api/dead: it toggles a dead group.
func (h *Handlers) Dead(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req DeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	resp, aerr := h.toggleDead(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SGF handles POST /api/sgf: it exports a session as SGF.
func (h *Handlers) SGF(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	resp, aerr := h.sessionSGF(req.SessionID)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Load handles POST /api/load: it imports SGF text into a new session.
func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	state, aerr := h.loadSGF(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SaveGame handles POST /api/games: it archives a session's record.
func (h *Handlers) SaveGame(w http.ResponseWriter, r *http.Request) {
	store := h.archive(w)
	if store == nil {
		return
	}
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	s, aerr := h.getSession(req.SessionID)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	ag, err := s.Archive(store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ARCHIVE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, ag)
}

// ListGames handles GET /api/games.
func (h *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	store := h.archive(w)
	if store == nil {
		return
	}
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	games, err := store.ListGames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ARCHIVE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, GamesResponse{Games: games, Count: len(games)})
}

// GetGame handles GET /api/games/{id}.
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	store := h.archive(w)
	if store == nil {
		return
	}
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	ag, err := store.LoadGame(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found", "GAME_NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ARCHIVE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, ag)
}

// DeleteGame handles DELETE /api/games/{id}.
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	store := h.archive(w)
	if store == nil {
		return
	}
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	id := chi.URLParam(r, "id")
	err := store.DeleteGame(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found", "GAME_NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ARCHIVE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// Stats handles GET /api/stats: archive statistics.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	store := h.archive(w)
	if store == nil {
		return
	}
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	stats, err := store.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ARCHIVE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
