package engine

// Group is a maximal 4-connected region of same-content cells together
// with its boundary. Groups are built by the board's partition pass and
// never modified afterwards, except for the two scoring fields: Dead is
// toggled through Board.ToggleDeadGroup and Territory is stamped by
// Board.Territory on empty regions.
type Group struct {
	Content  Content
	Stones   Mask // member cells
	Frontier Mask // cells adjacent to a member but not members themselves

	Dead      bool    // scoring: group agreed dead
	Territory Content // scoring: owner of this empty region, Empty = neutral
}

// Size returns the number of member cells.
func (g *Group) Size() int { return g.Stones.PopCount() }

// Has reports whether cell index i belongs to the group.
func (g *Group) Has(i int) bool { return g.Stones.IsSet(i) }

// Same reports whether two groups cover the same cells. Groups from one
// partition build are also pointer-identical, but mask comparison holds
// across rebuilds.
func (g *Group) Same(o *Group) bool { return g.Stones == o.Stones }

// Cells returns the member cell indices in ascending order.
func (g *Group) Cells() []int { return g.Stones.Cells() }
