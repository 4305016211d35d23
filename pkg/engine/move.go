package engine

import (
	"fmt"
	"sync"
)

// MoveVerdict classifies the outcome of an applied move. Illegal verdicts
// are normal outcomes, not errors: the move still produced a state, and
// the caller decides whether to keep it.
type MoveVerdict int

const (
	MoveLegal     MoveVerdict = iota
	MoveOverwrite             // target cell was already occupied
	MoveSuicide               // played group ended with no liberties and no captures
	MoveRepeat                // resulting position already seen in this line
)

// IsLegal reports whether the move was legal.
func (v MoveVerdict) IsLegal() bool { return v == MoveLegal }

// String returns a short lower-case name for the verdict.
func (v MoveVerdict) String() string {
	switch v {
	case MoveLegal:
		return "legal"
	case MoveOverwrite:
		return "overwrite"
	case MoveSuicide:
		return "suicide"
	case MoveRepeat:
		return "superko"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Scratch resources for the speculative paths: one board and one group
// slice are taken per call and reset between candidates, so legality
// enumeration does not churn allocations proportional to the cell count.
var (
	scratchBoards = sync.Pool{
		New: func() any { return new(Board) },
	}
	scratchGroups = sync.Pool{
		New: func() any {
			s := make([]*Group, 0, 4)
			return &s
		},
	}
)

// Apply plays c for the side to move and returns the successor state with
// the move's verdict. The receiver is never mutated.
//
// A pass flips the turn; the second consecutive pass ends the game and
// puts the board into scoring mode. An ordinary move is carried out even
// when illegal, so record-keeping layers can retain the state: an
// occupied target is overwritten, and a suicide removes the played group
// and credits the opponent. The verdict tells the caller what happened,
// and the resulting fingerprint is recorded in the history whatever the
// verdict.
//
// Applying a move to an ended game is a precondition violation and
// panics; so is an out-of-bounds coordinate.
func (g *Game) Apply(c Coord) (*Game, MoveVerdict) {
	if g.ended {
		panic("engine: move applied to an ended game")
	}
	n := g.next()
	n.moveIndex++

	if c.IsPass() {
		n.passes++
		n.toMove = n.toMove.Opposite()
		if n.passes > 1 {
			n.ended = true
			n.board.SetScoring(true)
		}
		return n, MoveLegal
	}

	n.passes = 0
	mover := g.toMove
	verdict := MoveLegal
	if n.board.Get(c.X, c.Y) != Empty {
		verdict = MoveOverwrite
	}
	n.board.Set(c.X, c.Y, mover)

	capturedPtr := scratchGroups.Get().(*[]*Group)
	captured := n.board.CapturedGroups(c.X, c.Y, (*capturedPtr)[:0])
	if len(captured) == 0 {
		own := n.board.GroupAt(c.X, c.Y)
		if !n.board.HasLiberties(own) {
			// Suicide: the played group comes off and the opponent
			// takes the prisoners.
			pts := n.board.Capture(own)
			n.prisoners[prisonerIndex(mover.Opposite())] += pts
			if verdict == MoveLegal {
				verdict = MoveSuicide
			}
		}
	} else {
		total := 0
		for _, cg := range captured {
			total += n.board.Capture(cg)
		}
		n.prisoners[prisonerIndex(mover)] += total
	}
	*capturedPtr = captured[:0]
	scratchGroups.Put(capturedPtr)

	fp := n.board.Fingerprint()
	if g.Seen(fp) && verdict == MoveLegal {
		verdict = MoveRepeat
	}
	n.history[fp] = struct{}{}

	n.toMove = mover.Opposite()
	return n, verdict
}

// LegalMoves enumerates the legal moves for color in the current
// position. The authoritative board is never touched: every candidate is
// played out on a pooled scratch board. The result includes Pass exactly
// when no ordinary move is legal or when the previous move in this line
// was itself a pass. On an ended or scoring board the list is empty.
func (g *Game) LegalMoves(color Content) []Coord {
	if g.ended || g.board.Scoring() {
		return nil
	}

	sb := scratchBoards.Get().(*Board)
	capturedPtr := scratchGroups.Get().(*[]*Group)
	defer func() {
		scratchBoards.Put(sb)
		*capturedPtr = (*capturedPtr)[:0]
		scratchGroups.Put(capturedPtr)
	}()

	var moves []Coord
	empty := g.board.emptyMask()
	for i := empty.PopLSB(); i >= 0; i = empty.PopLSB() {
		x, y := i%g.board.width, i/g.board.width
		if g.legalAt(sb, capturedPtr, x, y, color) {
			moves = append(moves, Coord{X: x, Y: y})
		}
	}
	if len(moves) == 0 || g.passes > 0 {
		moves = append(moves, Pass)
	}
	return moves
}

// legalAt plays color at (x, y) on the scratch board and applies the
// suicide and super-ko tests against this line's history.
func (g *Game) legalAt(sb *Board, capturedPtr *[]*Group, x, y int, color Content) bool {
	sb.CopyFrom(g.board)
	sb.Set(x, y, color)

	captured := sb.CapturedGroups(x, y, (*capturedPtr)[:0])
	if len(captured) == 0 {
		if !sb.HasLiberties(sb.GroupAt(x, y)) {
			*capturedPtr = captured[:0]
			return false
		}
	} else {
		for _, cg := range captured {
			sb.Capture(cg)
		}
	}
	*capturedPtr = captured[:0]
	return !g.Seen(sb.Fingerprint())
}
