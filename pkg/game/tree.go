package game

import "github.com/yourusername/goengine/pkg/engine"

// Node is one position in a game tree: the move that led here, the
// engine's verdict on it and the resulting state. The root carries no
// move. Children are the continuations explored from this position, in
// the order they were played; the first child is the main line.
type Node struct {
	Move     *Move // nil at the root
	Verdict  engine.MoveVerdict
	Game     *engine.Game
	Parent   *Node
	Children []*Node
}

// Tree is a branching game: record metadata over every explored line.
// The engine hands back a fresh state per move, so every node's Game
// stays valid and playable however its siblings develop.
type Tree struct {
	Rec  *Record // metadata; the linear move list is not consulted
	Root *Node
}

// NewTree starts a tree on an empty board.
func NewTree(width, height int) (*Tree, error) {
	g, err := engine.NewGame(width, height)
	if err != nil {
		return nil, err
	}
	return &Tree{
		Rec:  NewRecord(width, height),
		Root: &Node{Game: g},
	}, nil
}

// TreeFromRecord replays a linear record into a single-line tree, one
// node per move, root first. Branches can then be played from any node.
// Replay does not re-judge the recorded moves, so replayed nodes read as
// legal.
func TreeFromRecord(rec *Record) (*Tree, error) {
	t := &Tree{Rec: rec}
	var tip *Node
	_, err := rec.ReplayEach(func(moveIndex int, m *Move, g *engine.Game) error {
		n := &Node{Game: g}
		if moveIndex == 0 {
			t.Root = n
		} else {
			n.Move = m
			n.Parent = tip
			tip.Children = append(tip.Children, n)
		}
		tip = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Play applies a move or pass for the side to move at this node and
// appends the resulting position as a new child, whatever the verdict:
// the verdict rides on the child and the caller decides whether a
// refused branch is worth keeping. The receiving node's own state is
// untouched. The game at this node must not have ended.
func (n *Node) Play(at engine.Coord) (*Node, engine.MoveVerdict) {
	color := n.Game.ToMove()
	next, verdict := n.Game.Apply(at)
	child := &Node{
		Move:    &Move{Color: color, At: at},
		Verdict: verdict,
		Game:    next,
		Parent:  n,
	}
	n.Children = append(n.Children, child)
	return child, verdict
}

// Walk visits the subtree rooted at n depth first, parents before
// children, siblings in play order. Returning false skips the node's
// subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// MainLine returns the principal line root first: the first child at
// every branch point, down to a leaf.
func (t *Tree) MainLine() []*Node {
	var line []*Node
	for n := t.Root; n != nil; {
		line = append(line, n)
		if len(n.Children) == 0 {
			break
		}
		n = n.Children[0]
	}
	return line
}

// Record flattens the main line into a linear record under the tree's
// metadata, ready for export or archiving. Side branches are dropped.
func (t *Tree) Record() *Record {
	rec := *t.Rec
	rec.Moves = nil
	for _, n := range t.MainLine() {
		if n.Move != nil {
			rec.Moves = append(rec.Moves, *n.Move)
		}
	}
	return &rec
}
