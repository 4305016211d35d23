package engine

import "testing"

func TestHandicapPoints(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		n             int
		want          []Coord
	}{
		{"two on 19x19", 19, 19, 2, []Coord{{X: 3, Y: 3}, {X: 15, Y: 15}}},
		{"four on 19x19", 19, 19, 4, []Coord{
			{X: 3, Y: 3}, {X: 15, Y: 15}, {X: 15, Y: 3}, {X: 3, Y: 15},
		}},
		{"five on 9x9", 9, 9, 5, []Coord{
			{X: 2, Y: 2}, {X: 6, Y: 6}, {X: 6, Y: 2}, {X: 2, Y: 6}, {X: 4, Y: 4},
		}},
		{"six on 13x13", 13, 13, 6, []Coord{
			{X: 3, Y: 3}, {X: 9, Y: 9}, {X: 9, Y: 3}, {X: 3, Y: 9},
			{X: 3, Y: 6}, {X: 9, Y: 6},
		}},
		{"nine on 9x9", 9, 9, 9, []Coord{
			{X: 2, Y: 2}, {X: 6, Y: 6}, {X: 6, Y: 2}, {X: 2, Y: 6},
			{X: 2, Y: 4}, {X: 6, Y: 4}, {X: 4, Y: 2}, {X: 4, Y: 6},
			{X: 4, Y: 4},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HandicapPoints(tt.width, tt.height, tt.n)
			if err != nil {
				t.Fatalf("HandicapPoints: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("HandicapPoints = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("point %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHandicapPointsErrors(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		n             int
	}{
		{"too few stones", 19, 19, 1},
		{"too many stones", 19, 19, 10},
		{"board too small", 5, 5, 2},
		{"odd count on even board", 8, 8, 5},
		{"odd count on even height", 9, 8, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := HandicapPoints(tt.width, tt.height, tt.n); err == nil {
				t.Errorf("HandicapPoints(%d,%d,%d) accepted", tt.width, tt.height, tt.n)
			}
		})
	}

	// Even boards still take handicaps that avoid the center line.
	if _, err := HandicapPoints(8, 8, 4); err != nil {
		t.Errorf("HandicapPoints(8,8,4) = %v, want nil", err)
	}
}

func TestPlaceHandicap(t *testing.T) {
	g := mustGame(t, 9, 9)
	if err := g.PlaceHandicap(5); err != nil {
		t.Fatalf("PlaceHandicap: %v", err)
	}

	if got := g.Board().BlackMask().PopCount(); got != 5 {
		t.Errorf("black stones = %d, want 5", got)
	}
	if got := g.Board().Get(4, 4); got != Black {
		t.Errorf("center = %v, want black", got)
	}
	if got := g.ToMove(); got != White {
		t.Errorf("ToMove = %v, want white", got)
	}

	// Setup stones are not moves.
	if g.MoveIndex() != 0 || g.HistorySize() != 0 {
		t.Error("handicap placement counted as play")
	}
}

func TestPlaceHandicapNeedsFreshBoard(t *testing.T) {
	g := mustGame(t, 9, 9)
	g = playLegal(t, g, Coord{X: 0, Y: 0})
	if err := g.PlaceHandicap(2); err == nil {
		t.Error("PlaceHandicap accepted a board with play on it")
	}

	// A failed placement must not touch the game.
	g2 := mustGame(t, 9, 9)
	if err := g2.PlaceHandicap(10); err == nil {
		t.Fatal("PlaceHandicap(10) accepted")
	}
	if !g2.Board().BlackMask().Empty() || g2.ToMove() != Black {
		t.Error("failed placement left state behind")
	}
}
