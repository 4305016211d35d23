// Package api provides the HTTP/JSON service layer for the Go engine:
// game sessions over REST and WebSocket, an archive of finished games
// and a Server-Sent Events replay stream.
package api

import "github.com/yourusername/goengine/internal/storage"

// ============================================================================
// Request Types
// ============================================================================

// NewGameRequest is the request body for creating a session.
type NewGameRequest struct {
	Width    int      `json:"width,omitempty"`    // Board width (default 19)
	Height   int      `json:"height,omitempty"`   // Board height (default: width)
	Handicap int      `json:"handicap,omitempty"` // Fixed handicap stones (0 or 2-9)
	Komi     *float64 `json:"komi,omitempty"`     // Komi (default 6.5)
	Black    string   `json:"black,omitempty"`    // Black player name
	White    string   `json:"white,omitempty"`    // White player name
}

// MoveRequest is the request body for playing a move in a session.
type MoveRequest struct {
	SessionID string `json:"session_id"` // Session to play in
	Move      string `json:"move"`       // Vertex ("D4") or "pass"
}

// SessionRequest addresses an existing session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// LegalRequest asks for legal moves, either of a live session or of a
// bare position given by its position ID.
type LegalRequest struct {
	SessionID string `json:"session_id,omitempty"` // Session to inspect, or
	Position  string `json:"position,omitempty"`   // position ID of a bare board
	ToMove    string `json:"to_move,omitempty"`    // "black" or "white" (default: session turn, or black)
}

// DeadRequest toggles the dead flag of the stone group at a vertex.
type DeadRequest struct {
	SessionID string `json:"session_id"`
	Vertex    string `json:"vertex"` // Any stone of the group, "C2" style
}

// LoadRequest imports an SGF game into a new session.
type LoadRequest struct {
	SGF string `json:"sgf"` // Complete SGF text
}

// ============================================================================
// Response Types
// ============================================================================

// SessionResponse describes the current state of a session.
type SessionResponse struct {
	SessionID     string  `json:"session_id"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Komi          float64 `json:"komi"`
	Handicap      int     `json:"handicap,omitempty"`
	ToMove        string  `json:"to_move"` // "black" or "white"
	MoveIndex     int     `json:"move_index"`
	Passes        int     `json:"passes"`         // current run of consecutive passes
	CapturesBlack int     `json:"captures_black"` // prisoners taken by Black
	CapturesWhite int     `json:"captures_white"` // prisoners taken by White
	Ended         bool    `json:"ended"`
	Scoring       bool    `json:"scoring"`
	PositionID    string  `json:"position_id"`
	Board         string  `json:"board"` // printed diagram
}

// MoveResponse reports one applied move and the resulting state. On an
// illegal verdict the session is unchanged and the embedded state is the
// position the move was refused in.
type MoveResponse struct {
	Verdict string `json:"verdict"` // "legal", "overwrite", "suicide" or "superko"
	Legal   bool   `json:"legal"`
	SessionResponse
}

// LegalResponse lists legal moves as vertex names, "pass" included when
// passing is on the list.
type LegalResponse struct {
	ToMove string   `json:"to_move"`
	Moves  []string `json:"moves"`
	Count  int      `json:"count"`
	Cached bool     `json:"cached,omitempty"` // served from the move cache
}

// ScoreResponse carries the territory and prisoner counts of a session
// in scoring mode, with the resulting score line.
type ScoreResponse struct {
	SessionID      string  `json:"session_id"`
	TerritoryBlack int     `json:"territory_black"`
	TerritoryWhite int     `json:"territory_white"`
	CapturesBlack  int     `json:"captures_black"`
	CapturesWhite  int     `json:"captures_white"`
	Komi           float64 `json:"komi"`
	Result         string  `json:"result"` // "B+3.5", "W+0.5" or "Draw"
}

// SGFResponse returns a session rendered as SGF text.
type SGFResponse struct {
	SessionID string `json:"session_id"`
	SGF       string `json:"sgf"`
}

// GamesResponse lists archived games, newest first.
type GamesResponse struct {
	Games []*storage.ArchivedGame `json:"games"`
	Count int                     `json:"count"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status   string     `json:"status"`         // "ok"
	Version  string     `json:"version"`        // Server version
	Ready    bool       `json:"ready"`          // Archive open and serving
	Sessions int        `json:"sessions"`       // Live session count
	Pool     *PoolStats `json:"pool,omitempty"` // Worker pool stats if configured
}

// PoolResponse reports the worker pool and move cache counters.
type PoolResponse struct {
	Pool  PoolStats  `json:"pool"`
	Cache CacheStats `json:"move_cache"`
}

// ErrorResponse is the error response body.
type ErrorResponse struct {
	Error string `json:"error"`          // Human-readable message
	Code  string `json:"code,omitempty"` // Stable machine-readable code
}

// ============================================================================
// Replay Stream Types
// ============================================================================

// ReplayInfo opens a replay stream: the archived game being replayed.
type ReplayInfo struct {
	ID     string `json:"id"`
	Black  string `json:"black,omitempty"`
	White  string `json:"white,omitempty"`
	Result string `json:"result,omitempty"`
	Moves  int    `json:"moves"`
}

// ReplayStep is one frame of a replay stream. Step 0 is the position
// after setup stones, before the first move.
type ReplayStep struct {
	Move          int    `json:"move"`
	Color         string `json:"color,omitempty"` // mover, empty on step 0
	At            string `json:"at,omitempty"`    // vertex or "pass", empty on step 0
	PositionID    string `json:"position_id"`
	Board         string `json:"board"`
	CapturesBlack int    `json:"captures_black"`
	CapturesWhite int    `json:"captures_white"`
}

// ReplayDone closes a replay stream.
type ReplayDone struct {
	Result string `json:"result,omitempty"`
	Moves  int    `json:"moves"`
}
