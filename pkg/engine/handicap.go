package engine

import "fmt"

// MaxHandicap is the largest supported handicap stone count.
const MaxHandicap = 9

// PlaceHandicap puts n handicap stones on the board's star points and
// gives White the move. It is setup, not play: the stones go through the
// Set primitive, nothing enters the move history, and the game must still
// be untouched (no moves, no stones). On any precondition failure the
// game is left exactly as it was.
func (g *Game) PlaceHandicap(n int) error {
	if g.moveIndex > 0 || g.board.black.Any() || g.board.white.Any() {
		return fmt.Errorf("engine: handicap needs a fresh empty board")
	}
	pts, err := handicapPoints(g.board.width, g.board.height, n)
	if err != nil {
		return err
	}
	for _, p := range pts {
		g.board.Set(p.X, p.Y, Black)
	}
	g.toMove = White
	return nil
}

// HandicapPoints returns the star-point placement for n handicap stones
// on a width x height board, in the order stones are laid.
func HandicapPoints(width, height, n int) ([]Coord, error) {
	return handicapPoints(width, height, n)
}

// handicapPoints follows the fixed-handicap convention: opposite corners
// first, the remaining corners, then side midpoints, with the center
// seating the odd stone of counts above four.
func handicapPoints(width, height, n int) ([]Coord, error) {
	if n < 2 || n > MaxHandicap {
		return nil, fmt.Errorf("engine: handicap %d outside supported range 2..%d", n, MaxHandicap)
	}
	if width < 7 || height < 7 {
		return nil, fmt.Errorf("engine: no star points on a %dx%d board", width, height)
	}
	if n > 4 && (width%2 == 0 || height%2 == 0) {
		return nil, fmt.Errorf("engine: handicap %d needs odd board dimensions, board is %dx%d", n, width, height)
	}

	edgeX := 3
	if width < 13 {
		edgeX = 2
	}
	edgeY := 3
	if height < 13 {
		edgeY = 2
	}
	loX, hiX := edgeX, width-1-edgeX
	loY, hiY := edgeY, height-1-edgeY
	midX, midY := (width-1)/2, (height-1)/2

	pts := []Coord{{X: loX, Y: loY}, {X: hiX, Y: hiY}}
	if n >= 3 {
		pts = append(pts, Coord{X: hiX, Y: loY})
	}
	if n >= 4 {
		pts = append(pts, Coord{X: loX, Y: hiY})
	}
	if n >= 6 {
		pts = append(pts, Coord{X: loX, Y: midY}, Coord{X: hiX, Y: midY})
	}
	if n >= 8 {
		pts = append(pts, Coord{X: midX, Y: loY}, Coord{X: midX, Y: hiY})
	}
	if n >= 5 && n%2 == 1 {
		pts = append(pts, Coord{X: midX, Y: midY})
	}
	return pts, nil
}
