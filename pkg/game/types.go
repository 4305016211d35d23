// Package game provides game records and file import/export for Go
// games. Supports SGF (Smart Game Format, FF[4] GM[1]) and a plain-text
// kifu listing.
package game

import (
	"fmt"

	"github.com/yourusername/goengine/pkg/engine"
)

// DefaultKomi is the compensation White receives in an even game.
const DefaultKomi = 6.5

// Record represents one recorded game: metadata, setup stones and the
// move sequence. It is the interchange form between the file formats,
// the storage layer and the rules engine.
type Record struct {
	BlackPlayer string  // Name of the Black player
	WhitePlayer string  // Name of the White player
	Date        string  // Game date (YYYY-MM-DD format)
	Event       string  // Event name
	Place       string  // Location
	Result      string  // "B+3.5", "W+R", "Draw", "" if unknown
	Komi        float64 // Points added to White's score
	Handicap    int     // Number of handicap stones, 0 for an even game
	Width       int     // Board width
	Height      int     // Board height
	Setup       []Placement
	Moves       []Move
	Comment     string
}

// Placement is a setup stone put on the board before play starts.
type Placement struct {
	Color engine.Content
	At    engine.Coord
}

// Move is one played move. At is the pass sentinel for a pass.
type Move struct {
	Color   engine.Content
	At      engine.Coord
	Comment string
}

// NewRecord creates an empty record for a board size.
func NewRecord(width, height int) *Record {
	return &Record{
		Width:  width,
		Height: height,
		Komi:   DefaultKomi,
	}
}

// AddSetup adds a setup stone.
func (r *Record) AddSetup(color engine.Content, at engine.Coord) {
	r.Setup = append(r.Setup, Placement{Color: color, At: at})
}

// AddMove appends a played move.
func (r *Record) AddMove(color engine.Content, at engine.Coord) {
	r.Moves = append(r.Moves, Move{Color: color, At: at})
}

// Replay runs the record through the rules engine and returns the final
// state. Setup stones are placed before play; each move is applied for
// its recorded color even when the record does not alternate. Moves the
// engine flags (occupied cells, suicides, repeats) are still applied,
// matching how the engine keeps every record reproducible; moves that do
// not fit the board, or follow the game end, are errors.
func (r *Record) Replay() (*engine.Game, error) {
	return r.ReplayEach(nil)
}

// ReplayFunc observes one replay step. moveIndex is 0 for the starting
// position (after setup, before any move) and i for the state after
// move i; m is nil on the starting step. Returning an error stops the
// replay.
type ReplayFunc func(moveIndex int, m *Move, g *engine.Game) error

// ReplayEach is Replay with a callback after every step, for streaming
// a game state by state. A nil fn replays straight through.
func (r *Record) ReplayEach(fn ReplayFunc) (*engine.Game, error) {
	g, err := engine.NewGame(r.Width, r.Height)
	if err != nil {
		return nil, err
	}
	for i, p := range r.Setup {
		if p.At.IsPass() || !g.Board().InBounds(p.At.X, p.At.Y) {
			return nil, fmt.Errorf("setup stone %d: no cell %v on a %dx%d board", i+1, p.At, r.Width, r.Height)
		}
		g.Board().Set(p.At.X, p.At.Y, p.Color)
	}
	if len(r.Setup) > 0 {
		g.SetToMove(engine.White)
	}
	if fn != nil {
		if err := fn(0, nil, g); err != nil {
			return nil, err
		}
	}

	for i := range r.Moves {
		m := &r.Moves[i]
		if g.Ended() {
			return nil, fmt.Errorf("move %d: game already ended", i+1)
		}
		if !m.At.IsPass() && !g.Board().InBounds(m.At.X, m.At.Y) {
			return nil, fmt.Errorf("move %d: no cell %v on a %dx%d board", i+1, m.At, r.Width, r.Height)
		}
		if m.Color == engine.Black || m.Color == engine.White {
			g.SetToMove(m.Color)
		}
		g, _ = g.Apply(m.At)
		if fn != nil {
			if err := fn(i+1, m, g); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// ResultString scores a final position and renders the conventional
// result: territory for each side, komi added to White, "B+n", "W+n" or
// "Draw".
func ResultString(b *engine.Board, komi float64) string {
	black, white := b.Territory()
	bs := float64(black)
	ws := float64(white) + komi

	switch {
	case bs > ws:
		return fmt.Sprintf("B+%s", formatPoints(bs-ws))
	case ws > bs:
		return fmt.Sprintf("W+%s", formatPoints(ws-bs))
	default:
		return "Draw"
	}
}

// formatPoints renders a point margin without a trailing .0 on whole
// numbers.
func formatPoints(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.1f", p)
}
