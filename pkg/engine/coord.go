package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Content is the occupancy state of a single board cell.
type Content uint8

const (
	Empty Content = iota
	Black
	White
)

// Opposite returns the other stone color. Empty has no opposite; asking
// for one is a programming error.
func (c Content) Opposite() Content {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	panic("engine: Empty has no opposite color")
}

// String returns "empty", "black" or "white".
func (c Content) String() string {
	switch c {
	case Empty:
		return "empty"
	case Black:
		return "black"
	case White:
		return "white"
	}
	return fmt.Sprintf("content(%d)", uint8(c))
}

// Coord is a 0-indexed board coordinate. X runs along the width, Y along
// the height, with (0,0) in the lower-left corner of printed diagrams.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pass is the reserved coordinate for a passing move. It is distinct from
// every cell on every supported board.
var Pass = Coord{X: -1, Y: -1}

// IsPass reports whether c is the pass sentinel.
func (c Coord) IsPass() bool { return c.X < 0 || c.Y < 0 }

// String returns "pass" or "(x,y)".
func (c Coord) String() string {
	if c.IsPass() {
		return "pass"
	}
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Vertex returns the conventional letter-and-number name of c, "D4"
// style with column I skipped, or "pass". c must be the pass sentinel or
// a coordinate of a supported board.
func (c Coord) Vertex() string {
	if c.IsPass() {
		return "pass"
	}
	return fmt.Sprintf("%c%d", columnLetter(c.X), c.Y+1)
}

// ParseVertex reads a vertex name ("D4", "j10", "pass") for a board of
// the given size. Column I does not exist.
func ParseVertex(s string, width, height int) (Coord, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "PASS" {
		return Pass, nil
	}
	if len(v) < 2 {
		return Coord{}, fmt.Errorf("engine: bad vertex %q", s)
	}
	x := strings.IndexByte("ABCDEFGHJKLMNOPQRST", v[0])
	n, err := strconv.Atoi(v[1:])
	if x < 0 || err != nil {
		return Coord{}, fmt.Errorf("engine: bad vertex %q", s)
	}
	y := n - 1
	if x >= width || y < 0 || y >= height {
		return Coord{}, fmt.Errorf("engine: vertex %q outside %dx%d board", s, width, height)
	}
	return Coord{X: x, Y: y}, nil
}

// CellIndex maps (x, y) to its bit index on a board of the given width:
// index = y*width + x, row by row. Negative or out-of-width coordinates
// panic; hot paths bounds-check before calling.
func CellIndex(x, y, width int) int {
	if x < 0 || x >= width || y < 0 {
		panic(fmt.Sprintf("engine: coordinate (%d,%d) out of range for width %d", x, y, width))
	}
	return y*width + x
}

// CellMask returns the single-bit mask for (x, y) on a width x height
// board. Out-of-range coordinates panic.
func CellMask(x, y, width, height int) Mask {
	if x < 0 || x >= width || y < 0 || y >= height {
		panic(fmt.Sprintf("engine: coordinate (%d,%d) out of range on %dx%d board", x, y, width, height))
	}
	var m Mask
	m.Set(y*width + x)
	return m
}
