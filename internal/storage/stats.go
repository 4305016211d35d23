package storage

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ArchiveStats summarizes the stored games.
type ArchiveStats struct {
	Games         int     `json:"games"`
	BlackWins     int     `json:"black_wins"`
	WhiteWins     int     `json:"white_wins"`
	Draws         int     `json:"draws"`
	MeanMoves     float64 `json:"mean_moves"`
	StdDevMoves   float64 `json:"stddev_moves"`
	MedianMoves   float64 `json:"median_moves"`
	LongestGame   int     `json:"longest_game"`
	MeanPrisoners float64 `json:"mean_prisoners"`
}

// Stats aggregates the archive: result tallies plus move-count moments
// over every stored game.
func (s *Store) Stats() (ArchiveStats, error) {
	games, err := s.ListGames()
	if err != nil {
		return ArchiveStats{}, err
	}

	st := ArchiveStats{Games: len(games)}
	if len(games) == 0 {
		return st, nil
	}

	moves := make([]float64, 0, len(games))
	prisoners := make([]float64, 0, len(games))
	for _, ag := range games {
		moves = append(moves, float64(ag.Moves))
		prisoners = append(prisoners, float64(ag.PrisonersBlack+ag.PrisonersWhite))
		if ag.Moves > st.LongestGame {
			st.LongestGame = ag.Moves
		}
		switch {
		case strings.HasPrefix(ag.Result, "B+"):
			st.BlackWins++
		case strings.HasPrefix(ag.Result, "W+"):
			st.WhiteWins++
		case ag.Result == "Draw" || ag.Result == "0":
			st.Draws++
		}
	}

	// Quantile wants its input sorted.
	sort.Float64s(moves)
	st.MeanMoves = stat.Mean(moves, nil)
	st.MedianMoves = stat.Quantile(0.5, stat.Empirical, moves, nil)
	st.MeanPrisoners = stat.Mean(prisoners, nil)
	if len(moves) > 1 {
		st.StdDevMoves = stat.StdDev(moves, nil)
	}
	return st, nil
}
