package game

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/goengine/pkg/engine"
)

// The kifu format is a plain-text game listing: header lines of the form
// "Key: value", a blank line, then numbered moves.
//
// Example:
//
//	Black: Alice
//	White: Bob
//	Size: 9
//	Komi: 6.5
//
//	  1. B D4
//	  2. W C3
//	  3. B pass

var (
	kifuHeaderRE = regexp.MustCompile(`^([A-Za-z]+):\s*(.*)$`)
	kifuMoveRE   = regexp.MustCompile(`^\s*(\d+)\.\s+([BW])\s+(\S+)`)
	kifuSizeRE   = regexp.MustCompile(`^(\d+)(?:\s*x\s*(\d+))?$`)
)

// ImportKifu reads a game record from the plain-text kifu format.
func ImportKifu(r io.Reader) (*Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading kifu file: %w", err)
	}

	rec := &Record{Width: 19, Height: 19}

	// Headers decide the board size, so read them all before any move.
	var setupLines []string
	for _, line := range lines {
		if kifuMoveRE.MatchString(line) {
			continue
		}
		m := kifuHeaderRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "black":
			rec.BlackPlayer = value
		case "white":
			rec.WhitePlayer = value
		case "size":
			sz := kifuSizeRE.FindStringSubmatch(value)
			if sz == nil {
				return nil, fmt.Errorf("bad Size header %q", value)
			}
			rec.Width, _ = strconv.Atoi(sz[1])
			rec.Height = rec.Width
			if sz[2] != "" {
				rec.Height, _ = strconv.Atoi(sz[2])
			}
			if rec.Width < 1 || rec.Width > engine.MaxBoardDim ||
				rec.Height < 1 || rec.Height > engine.MaxBoardDim {
				return nil, fmt.Errorf("unsupported Size header %q", value)
			}
		case "komi":
			rec.Komi, _ = strconv.ParseFloat(value, 64)
		case "handicap":
			rec.Handicap, _ = strconv.Atoi(value)
		case "result":
			rec.Result = value
		case "event":
			rec.Event = value
		case "place":
			rec.Place = value
		case "date":
			rec.Date = value
		case "setup":
			setupLines = append(setupLines, value)
		}
	}

	for _, value := range setupLines {
		color, at, err := parseKifuStone(value, rec.Width, rec.Height)
		if err != nil {
			return nil, fmt.Errorf("setup stone %q: %w", value, err)
		}
		if at.IsPass() {
			return nil, fmt.Errorf("setup stone %q: not a point", value)
		}
		rec.AddSetup(color, at)
	}

	for _, line := range lines {
		m := kifuMoveRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		color, at, err := parseKifuStone(m[2]+" "+m[3], rec.Width, rec.Height)
		if err != nil {
			return nil, fmt.Errorf("move %s: %w", m[1], err)
		}
		rec.Moves = append(rec.Moves, Move{Color: color, At: at})
	}

	return rec, nil
}

// parseKifuStone reads a "B D4" style color and vertex pair.
func parseKifuStone(s string, width, height int) (engine.Content, engine.Coord, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return engine.Empty, engine.Coord{}, fmt.Errorf("want color and vertex, got %q", s)
	}
	var color engine.Content
	switch strings.ToUpper(fields[0]) {
	case "B":
		color = engine.Black
	case "W":
		color = engine.White
	default:
		return engine.Empty, engine.Coord{}, fmt.Errorf("bad color %q", fields[0])
	}
	at, err := engine.ParseVertex(fields[1], width, height)
	if err != nil {
		return engine.Empty, engine.Coord{}, err
	}
	return color, at, nil
}

// ExportKifu writes a record in the plain-text kifu format.
func ExportKifu(w io.Writer, rec *Record) error {
	fmt.Fprintf(w, "Black: %s\n", rec.BlackPlayer)
	fmt.Fprintf(w, "White: %s\n", rec.WhitePlayer)
	if rec.Width == rec.Height {
		fmt.Fprintf(w, "Size: %d\n", rec.Width)
	} else {
		fmt.Fprintf(w, "Size: %dx%d\n", rec.Width, rec.Height)
	}
	fmt.Fprintf(w, "Komi: %g\n", rec.Komi)
	if rec.Handicap > 0 {
		fmt.Fprintf(w, "Handicap: %d\n", rec.Handicap)
	}
	if rec.Result != "" {
		fmt.Fprintf(w, "Result: %s\n", rec.Result)
	}
	if rec.Event != "" {
		fmt.Fprintf(w, "Event: %s\n", rec.Event)
	}
	if rec.Place != "" {
		fmt.Fprintf(w, "Place: %s\n", rec.Place)
	}
	if rec.Date != "" {
		fmt.Fprintf(w, "Date: %s\n", rec.Date)
	}
	for _, p := range rec.Setup {
		colorChar := "B"
		if p.Color == engine.White {
			colorChar = "W"
		}
		fmt.Fprintf(w, "Setup: %s %s\n", colorChar, p.At.Vertex())
	}
	fmt.Fprintf(w, "\n")

	for i, m := range rec.Moves {
		colorChar := "B"
		if m.Color == engine.White {
			colorChar = "W"
		}
		fmt.Fprintf(w, "%3d. %s %s\n", i+1, colorChar, m.At.Vertex())
	}
	return nil
}
