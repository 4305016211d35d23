package engine

// Game is one node of play: a board, the side to move, prisoner counts
// and the fingerprint history that backs the super-ko rule. Apply never
// mutates its receiver but returns a successor state, so callers are
// free to keep whole branching trees of games alive and replay from any
// node.
type Game struct {
	board     *Board
	toMove    Content
	prisoners [2]int // stones captured by Black, by White
	passes    int    // consecutive passes
	moveIndex int
	ended     bool

	// history holds the fingerprint of every position reached by a move
	// in this line, including illegal ones. Append-only set semantics;
	// the starting position is not an entry.
	history map[uint64]struct{}
}

// NewGame starts a game on an empty width x height board with Black to
// move. Size limits are NewBoard's.
func NewGame(width, height int) (*Game, error) {
	b, err := NewBoard(width, height)
	if err != nil {
		return nil, err
	}
	return &Game{
		board:   b,
		toMove:  Black,
		history: make(map[uint64]struct{}),
	}, nil
}

// NewGameFromBoard wraps an existing position as a game start. The board
// is cloned and the history starts empty: whatever produced the position
// is not remembered, so the super-ko rule only sees this line.
func NewGameFromBoard(b *Board, toMove Content) *Game {
	return &Game{
		board:   b.Clone(),
		toMove:  toMove,
		history: make(map[uint64]struct{}),
	}
}

// next returns a deep working copy: cloned board, copied counters and a
// copied history set, so sibling branches stay fully independent.
func (g *Game) next() *Game {
	h := make(map[uint64]struct{}, len(g.history)+1)
	for k := range g.history {
		h[k] = struct{}{}
	}
	return &Game{
		board:     g.board.Clone(),
		toMove:    g.toMove,
		prisoners: g.prisoners,
		passes:    g.passes,
		moveIndex: g.moveIndex,
		ended:     g.ended,
		history:   h,
	}
}

// Board returns the authoritative board. Mutating it directly is reserved
// for setup (handicap stones, loaded positions); once play has started,
// go through Apply.
func (g *Game) Board() *Board { return g.board }

// ToMove returns the side to move.
func (g *Game) ToMove() Content { return g.toMove }

// SetToMove overrides the side to move. Setup-time only, like direct
// board mutation.
func (g *Game) SetToMove(c Content) { g.toMove = c }

// Ended reports whether two consecutive passes have ended the game.
func (g *Game) Ended() bool { return g.ended }

// MoveIndex returns the number of moves applied on this line, passes
// included.
func (g *Game) MoveIndex() int { return g.moveIndex }

// Passes returns the current run of consecutive passes.
func (g *Game) Passes() int { return g.passes }

// Captures returns the number of prisoners color has taken.
func (g *Game) Captures(c Content) int {
	return g.prisoners[prisonerIndex(c)]
}

// Seen reports whether a board fingerprint is already in this line's
// history.
func (g *Game) Seen(fingerprint uint64) bool {
	_, ok := g.history[fingerprint]
	return ok
}

// HistorySize returns the number of distinct recorded fingerprints.
func (g *Game) HistorySize() int { return len(g.history) }

func prisonerIndex(c Content) int {
	switch c {
	case Black:
		return 0
	case White:
		return 1
	}
	panic("engine: Empty takes no prisoners")
}
