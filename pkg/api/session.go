package api

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/yourusername/goengine/internal/positionid"
	"github.com/yourusername/goengine/internal/storage"
	"github.com/yourusername/goengine/pkg/engine"
	"github.com/yourusername/goengine/pkg/game"
)

// errGameEnded guards Play: the engine treats a move on an ended game as
// a programming error, the service reports it to the client instead.
var errGameEnded = errors.New("game already ended")

// Session is one live game owned by the service: the record that will
// eventually be archived and the engine state it replays to. All access
// goes through the methods, which serialize on the session's own lock,
// so REST and WebSocket traffic can share a game.
type Session struct {
	ID      string
	Created time.Time

	mu   sync.Mutex
	rec  *game.Record
	game *engine.Game
}

func newSession(rec *game.Record, g *engine.Game) *Session {
	return &Session{
		ID:      xid.New().String(),
		Created: time.Now().UTC(),
		rec:     rec,
		game:    g,
	}
}

// StartSession creates a fresh session: an empty board, record metadata
// filled in, and an optional fixed handicap, which puts Black stones on
// the star points and hands the first turn to White.
func StartSession(width, height, handicap int, komi float64, black, white string) (*Session, error) {
	g, err := engine.NewGame(width, height)
	if err != nil {
		return nil, err
	}
	rec := game.NewRecord(width, height)
	rec.Komi = komi
	rec.BlackPlayer = black
	rec.WhitePlayer = white

	if handicap > 0 {
		pts, err := engine.HandicapPoints(width, height, handicap)
		if err != nil {
			return nil, err
		}
		if err := g.PlaceHandicap(handicap); err != nil {
			return nil, err
		}
		rec.Handicap = handicap
		for _, p := range pts {
			rec.AddSetup(engine.Black, p)
		}
	}
	return newSession(rec, g), nil
}

// LoadSession replays an imported record into a session.
func LoadSession(rec *game.Record) (*Session, error) {
	g, err := rec.Replay()
	if err != nil {
		return nil, err
	}
	return newSession(rec, g), nil
}

// Dims returns the board dimensions. They never change after creation,
// so callers may parse vertices against them without holding the lock.
func (s *Session) Dims() (width, height int) {
	return s.rec.Width, s.rec.Height
}

// State returns a snapshot of the session for transport.
func (s *Session) State() SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() SessionResponse {
	b := s.game.Board()
	return SessionResponse{
		SessionID:     s.ID,
		Width:         b.Width(),
		Height:        b.Height(),
		Komi:          s.rec.Komi,
		Handicap:      s.rec.Handicap,
		ToMove:        s.game.ToMove().String(),
		MoveIndex:     s.game.MoveIndex(),
		Passes:        s.game.Passes(),
		CapturesBlack: s.game.Captures(engine.Black),
		CapturesWhite: s.game.Captures(engine.White),
		Ended:         s.game.Ended(),
		Scoring:       b.Scoring(),
		PositionID:    positionid.PositionID(b),
		Board:         b.String(),
	}
}

// Play applies one move or pass for the side to move. A move the engine
// flags as illegal leaves the session unchanged; the verdict tells the
// caller what was wrong. Playing into an ended game is errGameEnded.
func (s *Session) Play(at engine.Coord) (engine.MoveVerdict, SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game.Ended() {
		return engine.MoveLegal, SessionResponse{}, errGameEnded
	}
	color := s.game.ToMove()
	next, verdict := s.game.Apply(at)
	if verdict.IsLegal() {
		s.game = next
		s.rec.AddMove(color, at)
	}
	return verdict, s.stateLocked(), nil
}

// LegalMoves enumerates the legal moves for color, or for the side to
// move when color is Empty. The resolved color is returned with the
// list.
func (s *Session) LegalMoves(color engine.Content) (engine.Content, []engine.Coord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if color == engine.Empty {
		color = s.game.ToMove()
	}
	return color, s.game.LegalMoves(color)
}

// Score puts the board into scoring mode and counts territory under the
// current dead flags.
func (s *Session) Score() ScoreResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreLocked()
}

func (s *Session) scoreLocked() ScoreResponse {
	b := s.game.Board()
	if !b.Scoring() {
		b.SetScoring(true)
	}
	black, white := b.Territory()
	return ScoreResponse{
		SessionID:      s.ID,
		TerritoryBlack: black,
		TerritoryWhite: white,
		CapturesBlack:  s.game.Captures(engine.Black),
		CapturesWhite:  s.game.Captures(engine.White),
		Komi:           s.rec.Komi,
		Result:         game.ResultString(b, s.rec.Komi),
	}
}

// ToggleDead flips the dead flag of the group at the vertex and
// rescores. The vertex must carry a stone.
func (s *Session) ToggleDead(at engine.Coord) (ScoreResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.game.Board()
	if !b.Scoring() {
		b.SetScoring(true)
	}
	if b.Get(at.X, at.Y) == engine.Empty {
		return ScoreResponse{}, fmt.Errorf("no stone at %s", at.Vertex())
	}
	b.ToggleDeadGroup(at.X, at.Y)
	return s.scoreLocked(), nil
}

// SGF renders the session's record as SGF text.
func (s *Session) SGF() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf bytes.Buffer
	if err := game.ExportSGF(&buf, s.rec); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Archive writes the session's record to the store. The session stays
// live; archiving a game twice stores two copies.
func (s *Session) Archive(store *storage.Store) (*storage.ArchivedGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.SaveGame(s.rec)
}

// Sessions is the registry of live sessions.
type Sessions struct {
	mu sync.RWMutex
	m  map[string]*Session
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Session)}
}

// Add registers a session.
func (ss *Sessions) Add(s *Session) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.m[s.ID] = s
}

// Get looks a session up by ID.
func (ss *Sessions) Get(id string) (*Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.m[id]
	return s, ok
}

// Remove drops a session and reports whether it existed.
func (ss *Sessions) Remove(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.m[id]
	delete(ss.m, id)
	return ok
}

// Len returns the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.m)
}
