package engine

// geometry holds the precomputed edge masks for one board size, so that
// neighbor and flood-fill queries stay pure bit arithmetic. Shifting a
// plane east or west would wrap stones around the row boundary; the edge
// column masks cut those wraps off.
type geometry struct {
	width  int
	height int
	cells  int

	all      Mask // every on-board cell
	westEdge Mask // column x = 0
	eastEdge Mask // column x = width-1
}

func newGeometry(width, height int) geometry {
	g := geometry{width: width, height: height, cells: width * height}
	for i := 0; i < g.cells; i++ {
		g.all.Set(i)
	}
	for y := 0; y < height; y++ {
		g.westEdge.Set(y * width)
		g.eastEdge.Set(y*width + width - 1)
	}
	return g
}

// east shifts every cell one step in +x, dropping the east edge's wraps.
func (g *geometry) east(m Mask) Mask {
	return m.shiftLeft(1).AndNot(g.westEdge).And(g.all)
}

// west shifts every cell one step in -x.
func (g *geometry) west(m Mask) Mask {
	return m.shiftRight(1).AndNot(g.eastEdge)
}

// north shifts every cell one step in +y.
func (g *geometry) north(m Mask) Mask {
	return m.shiftLeft(uint(g.width)).And(g.all)
}

// south shifts every cell one step in -y.
func (g *geometry) south(m Mask) Mask {
	return m.shiftRight(uint(g.width))
}

// adjacent returns the cells orthogonally adjacent to m, excluding m
// itself.
func (g *geometry) adjacent(m Mask) Mask {
	a := g.east(m).Or(g.west(m)).Or(g.north(m)).Or(g.south(m))
	return a.AndNot(m)
}

// flood grows seed to its full connected region inside within, one
// dilation step at a time until a fixed point. Iterative: bounded by the
// cell count, no recursion however pathological the shape.
func (g *geometry) flood(within, seed Mask) Mask {
	cur := seed.And(within)
	for {
		next := cur.Or(g.adjacent(cur).And(within))
		if next == cur {
			return cur
		}
		cur = next
	}
}
