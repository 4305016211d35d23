// Package engine implements the rules core for the game of Go: a
// bit-plane board, lazy group partitioning, liberty and capture
// computation, super-ko detection and territory scoring. It is the
// foundation the record, protocol and service layers build on.
package engine

import (
	"fmt"
	"strings"
)

// Board owns the stone layout of one position: one bit plane per color,
// a scoring flag and a lazily derived group partition. The two planes are
// always disjoint. Set is the only mutation primitive; every mutation
// invalidates the cached partition of this board alone.
type Board struct {
	width  int
	height int
	geo    geometry

	black Mask
	white Mask

	scoring bool
	hash    uint64
	zob     *zobristTable

	// Derived partition, rebuilt on first query after a mutation.
	// groups[i] points at the group containing cell i.
	built     bool
	groups    []*Group
	groupList []*Group
}

// NewBoard returns an empty width x height board. Both dimensions must be
// in [1, MaxBoardDim]; anything else is rejected before allocation.
func NewBoard(width, height int) (*Board, error) {
	if width < 1 || width > MaxBoardDim || height < 1 || height > MaxBoardDim {
		return nil, fmt.Errorf("engine: unsupported board size %dx%d (dimensions must be 1..%d)",
			width, height, MaxBoardDim)
	}
	return &Board{
		width:  width,
		height: height,
		geo:    newGeometry(width, height),
		zob:    tableFor(width, height),
	}, nil
}

// Width returns the board width.
func (b *Board) Width() int { return b.width }

// Height returns the board height.
func (b *Board) Height() int { return b.height }

// Cells returns the number of cells on the board.
func (b *Board) Cells() int { return b.geo.cells }

// Scoring reports whether the board is in scoring mode.
func (b *Board) Scoring() bool { return b.scoring }

// Fingerprint returns the Zobrist hash of the current stone content. Two
// boards of the same size hold the same stones iff their fingerprints
// match (up to hash collisions); this is the value the super-ko history
// records.
func (b *Board) Fingerprint() uint64 { return b.hash }

// InBounds reports whether (x, y) is a cell of this board.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// idx converts checked coordinates to a cell index. Out-of-range
// coordinates are a precondition violation and panic before any state is
// touched.
func (b *Board) idx(x, y int) int {
	if !b.InBounds(x, y) {
		panic(fmt.Sprintf("engine: coordinate (%d,%d) out of range on %dx%d board",
			x, y, b.width, b.height))
	}
	return y*b.width + x
}

// Get returns the content of (x, y).
func (b *Board) Get(x, y int) Content {
	i := b.idx(x, y)
	if b.black.IsSet(i) {
		return Black
	}
	if b.white.IsSet(i) {
		return White
	}
	return Empty
}

// Set overwrites (x, y) with the given content. This is the single
// mutation primitive: setup stones, played stones and per-cell removals
// all reduce to it. The incremental fingerprint follows the planes and
// the cached partition is invalidated.
func (b *Board) Set(x, y int, c Content) {
	i := b.idx(x, y)
	if b.black.IsSet(i) {
		b.black.Clear(i)
		b.hash ^= b.zob.black[i]
	}
	if b.white.IsSet(i) {
		b.white.Clear(i)
		b.hash ^= b.zob.white[i]
	}
	switch c {
	case Black:
		b.black.Set(i)
		b.hash ^= b.zob.black[i]
	case White:
		b.white.Set(i)
		b.hash ^= b.zob.white[i]
	}
	b.invalidate()
}

// BlackMask returns the Black plane by value.
func (b *Board) BlackMask() Mask { return b.black }

// WhiteMask returns the White plane by value.
func (b *Board) WhiteMask() Mask { return b.white }

// emptyMask returns the cells occupied by neither color.
func (b *Board) emptyMask() Mask {
	return b.geo.all.AndNot(b.black.Or(b.white))
}

func (b *Board) invalidate() {
	b.built = false
}

func (b *Board) ensureGroups() {
	if !b.built {
		b.buildGroups()
	}
}

// buildGroups partitions the whole board into groups: stones of either
// color and empty regions alike. Each cell is assigned by one flood fill
// and visited exactly once per rebuild.
func (b *Board) buildGroups() {
	if cap(b.groups) < b.geo.cells {
		b.groups = make([]*Group, b.geo.cells)
	} else {
		b.groups = b.groups[:b.geo.cells]
		for i := range b.groups {
			b.groups[i] = nil
		}
	}
	b.groupList = b.groupList[:0]

	empty := b.emptyMask()
	var seen Mask
	for i := 0; i < b.geo.cells; i++ {
		if seen.IsSet(i) {
			continue
		}
		var within Mask
		var c Content
		switch {
		case b.black.IsSet(i):
			within, c = b.black, Black
		case b.white.IsSet(i):
			within, c = b.white, White
		default:
			within, c = empty, Empty
		}
		var seed Mask
		seed.Set(i)
		stones := b.geo.flood(within, seed)
		g := &Group{
			Content:  c,
			Stones:   stones,
			Frontier: b.geo.adjacent(stones),
		}
		b.groupList = append(b.groupList, g)
		rest := stones
		for j := rest.PopLSB(); j >= 0; j = rest.PopLSB() {
			b.groups[j] = g
			seen.Set(j)
		}
	}
	b.built = true
}

// GroupAt returns the group containing (x, y), building the full-board
// partition first if it is stale. The group stays valid until the next
// mutation of this board.
func (b *Board) GroupAt(x, y int) *Group {
	i := b.idx(x, y)
	b.ensureGroups()
	return b.groups[i]
}

// Groups returns every group of the current partition. The slice is owned
// by the board and is only valid until the next mutation.
func (b *Board) Groups() []*Group {
	b.ensureGroups()
	return b.groupList
}

// HasLiberties reports whether g can stay on the board: an empty region
// counts as always having liberties, a colored group has them while its
// frontier touches at least one empty cell.
func (b *Board) HasLiberties(g *Group) bool {
	if g.Content == Empty {
		return g.Stones.Any()
	}
	return g.Frontier.Intersects(b.emptyMask())
}

// Liberties returns the number of empty cells on g's frontier.
func (b *Board) Liberties(g *Group) int {
	if g.Content == Empty {
		return 0
	}
	return g.Frontier.And(b.emptyMask()).PopCount()
}

// CapturedGroups appends to out every group opposing the stone at (x, y)
// that is orthogonally adjacent to it and has no liberties left. Call it
// after the stone is on the board, so the stone's own effect on enemy
// liberties is visible. Duplicates are filtered by mask overlap rather
// than pointer identity, and the played cell's own group is never a
// candidate. The out slice is caller-owned scratch.
func (b *Board) CapturedGroups(x, y int, out []*Group) []*Group {
	i := b.idx(x, y)
	var c Content
	switch {
	case b.black.IsSet(i):
		c = Black
	case b.white.IsSet(i):
		c = White
	default:
		return out
	}
	b.ensureGroups()
	opp := c.Opposite()

	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := x+d[0], y+d[1]
		if !b.InBounds(nx, ny) {
			continue
		}
		g := b.groups[ny*b.width+nx]
		if g.Content != opp {
			continue
		}
		dup := false
		for _, h := range out {
			if h.Stones.Intersects(g.Stones) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if !b.HasLiberties(g) {
			out = append(out, g)
		}
	}
	return out
}

// Capture removes every member of g from the board and returns the point
// count removed. g keeps its masks; the board's partition is invalidated.
func (b *Board) Capture(g *Group) int {
	n := g.Stones.PopCount()
	b.removeMask(g.Stones)
	return n
}

// removeMask clears the given cells from both planes, unwinding the
// fingerprint stone by stone.
func (b *Board) removeMask(m Mask) {
	gone := m.And(b.black)
	for i := gone.PopLSB(); i >= 0; i = gone.PopLSB() {
		b.hash ^= b.zob.black[i]
	}
	b.black = b.black.AndNot(m)

	gone = m.And(b.white)
	for i := gone.PopLSB(); i >= 0; i = gone.PopLSB() {
		b.hash ^= b.zob.white[i]
	}
	b.white = b.white.AndNot(m)
	b.invalidate()
}

// WouldCapture reports whether placing c at (x, y) would remove at least
// one opposing group. Purely speculative: it works on plane copies and
// leaves the board and its caches untouched.
func (b *Board) WouldCapture(x, y int, c Content) bool {
	i := b.idx(x, y)
	if c == Empty {
		return false
	}
	black, white := b.black, b.white
	black.Clear(i)
	white.Clear(i)
	if c == Black {
		black.Set(i)
	} else {
		white.Set(i)
	}
	opp := black
	if c == Black {
		opp = white
	}
	empty := b.geo.all.AndNot(black.Or(white))

	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := x+d[0], y+d[1]
		if !b.InBounds(nx, ny) {
			continue
		}
		ni := ny*b.width + nx
		if !opp.IsSet(ni) {
			continue
		}
		var seed Mask
		seed.Set(ni)
		g := b.geo.flood(opp, seed)
		if !b.geo.adjacent(g).Intersects(empty) {
			return true
		}
	}
	return false
}

// SetScoring switches scoring mode. Entering it forces a full partition
// rebuild so that dead toggles and territory queries act on one stable
// set of groups.
func (b *Board) SetScoring(on bool) {
	b.scoring = on
	if on {
		b.invalidate()
		b.ensureGroups()
	}
}

// ToggleDeadGroup flips the dead flag of the stone group at (x, y).
// Outside scoring mode, or on an empty cell, it does nothing.
func (b *Board) ToggleDeadGroup(x, y int) {
	i := b.idx(x, y)
	if !b.scoring {
		return
	}
	b.ensureGroups()
	g := b.groups[i]
	if g.Content == Empty {
		return
	}
	g.Dead = !g.Dead
}

// Territory scores the position. Every empty region bordered by stones of
// exactly one color counts for that color; regions touching both colors,
// or no stones at all, are neutral. A dead group is worth double its size
// to the opponent: the stones come off and the area under them is
// surrendered. Empty groups get their Territory owner stamped as a side
// effect, for TerritoryOwner.
func (b *Board) Territory() (black, white int) {
	b.ensureGroups()
	for _, g := range b.groupList {
		switch g.Content {
		case Empty:
			touchesBlack := g.Frontier.Intersects(b.black)
			touchesWhite := g.Frontier.Intersects(b.white)
			switch {
			case touchesBlack && !touchesWhite:
				black += g.Stones.PopCount()
				g.Territory = Black
			case touchesWhite && !touchesBlack:
				white += g.Stones.PopCount()
				g.Territory = White
			default:
				g.Territory = Empty
			}
		case Black:
			if g.Dead {
				white += 2 * g.Stones.PopCount()
			}
		case White:
			if g.Dead {
				black += 2 * g.Stones.PopCount()
			}
		}
	}
	return black, white
}

// TerritoryOwner returns the color credited with the empty cell (x, y),
// or Empty for stones and neutral ground. It recomputes territory, so it
// always reflects the current dead flags.
func (b *Board) TerritoryOwner(x, y int) Content {
	i := b.idx(x, y)
	b.Territory()
	g := b.groups[i]
	if g.Content != Empty {
		return Empty
	}
	return g.Territory
}

// Clone returns an independent copy of the board. The planes, fingerprint
// and scoring flag are copied; the partition cache is left stale on the
// clone, so the two boards never share mutable state.
func (b *Board) Clone() *Board {
	return &Board{
		width:   b.width,
		height:  b.height,
		geo:     b.geo,
		black:   b.black,
		white:   b.white,
		scoring: b.scoring,
		hash:    b.hash,
		zob:     b.zob,
	}
}

// CopyFrom turns b into a copy of src while reusing b's allocations. The
// legality loop uses it to recycle one scratch board across candidates.
func (b *Board) CopyFrom(src *Board) {
	b.width = src.width
	b.height = src.height
	b.geo = src.geo
	b.black = src.black
	b.white = src.white
	b.scoring = src.scoring
	b.hash = src.hash
	b.zob = src.zob
	b.built = false
	b.groupList = b.groupList[:0]
}

// columnLetter returns the conventional column label, skipping I.
func columnLetter(x int) byte {
	letters := "ABCDEFGHJKLMNOPQRST"
	return letters[x]
}

// String renders the position as a diagram, highest row first, with
// column letters below. Black stones print as X, White as O; in scoring
// mode dead stones print lowercase.
func (b *Board) String() string {
	var sb strings.Builder
	for y := b.height - 1; y >= 0; y-- {
		fmt.Fprintf(&sb, "%2d ", y+1)
		for x := 0; x < b.width; x++ {
			ch := byte('.')
			switch b.Get(x, y) {
			case Black:
				ch = 'X'
			case White:
				ch = 'O'
			}
			if b.scoring && ch != '.' && b.GroupAt(x, y).Dead {
				ch += 'a' - 'A'
			}
			sb.WriteByte(ch)
			if x < b.width-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ")
	for x := 0; x < b.width; x++ {
		sb.WriteByte(columnLetter(x))
		if x < b.width-1 {
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}
