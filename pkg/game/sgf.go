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

// SGF (Smart Game Format) is the standard record format for Go.
// See: https://www.red-bean.com/sgf/go.html
//
// Example SGF:
// (;FF[4]GM[1]AP[goengine:1.0]SZ[9]KM[6.5]
//  PB[Black]PW[White]
//  ;B[ee]
//  ;W[cc]
//  ...)

var (
	sgfPropertyRE = regexp.MustCompile(`([A-Z]+)\[([^\]]*)\]`)
	sgfSetupRE    = regexp.MustCompile(`(AB|AW)((?:\[[^\]]*\])+)`)
	sgfValueRE    = regexp.MustCompile(`\[([^\]]*)\]`)
)

// ImportSGF reads a game record from SGF format. Only the first game
// tree of a collection is read, and at a branch point the first
// variation is followed.
func ImportSGF(r io.Reader) (*Record, error) {
	scanner := bufio.NewScanner(r)
	var content strings.Builder

	for scanner.Scan() {
		content.WriteString(scanner.Text())
		content.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading SGF file: %w", err)
	}

	trees := splitSGFGames(content.String())
	if len(trees) == 0 {
		return nil, fmt.Errorf("no game tree in SGF input")
	}
	return parseSGFRecord(mainLine(trees[0]))
}

// splitSGFGames splits SGF content into individual game trees.
func splitSGFGames(content string) []string {
	var games []string
	depth := 0
	start := -1

	for i, ch := range content {
		if ch == '(' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == ')' {
			depth--
			if depth == 0 && start >= 0 {
				games = append(games, content[start:i+1])
				start = -1
			}
		}
	}

	return games
}

// mainLine flattens a game tree to its main line: at every branch point
// the first variation is kept and its siblings are dropped.
func mainLine(tree string) string {
	var sb strings.Builder
	var taken []bool // per open subtree: first child already consumed
	skip := 0

	for i := 0; i < len(tree); i++ {
		switch tree[i] {
		case '(':
			if skip > 0 {
				skip++
				continue
			}
			if len(taken) > 0 && taken[len(taken)-1] {
				skip = 1
				continue
			}
			if len(taken) > 0 {
				taken[len(taken)-1] = true
			}
			taken = append(taken, false)
		case ')':
			if skip > 0 {
				skip--
				continue
			}
			if len(taken) > 0 {
				taken = taken[:len(taken)-1]
			}
		default:
			if skip == 0 {
				sb.WriteByte(tree[i])
			}
		}
	}
	return sb.String()
}

// parseSGFRecord parses one flattened game tree into a Record.
func parseSGFRecord(content string) (*Record, error) {
	// The board size decides how move coordinates flip, so scan for it
	// before walking the nodes.
	all := parseSGFProperties(content)
	if gm, ok := all["GM"]; ok && gm != "1" {
		return nil, fmt.Errorf("not a Go record: GM[%s]", gm)
	}
	width, height := 19, 19
	if sz, ok := all["SZ"]; ok {
		var err error
		width, height, err = parseSGFSize(sz)
		if err != nil {
			return nil, err
		}
	}

	rec := &Record{Width: width, Height: height}

	nodes := strings.Split(content, ";")
	for _, node := range nodes[1:] {
		if err := parseSGFNode(node, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// parseSGFNode parses one node: either a move node (B or W property) or
// a metadata node.
func parseSGFNode(node string, rec *Record) error {
	props := parseSGFProperties(node)

	for _, m := range sgfSetupRE.FindAllStringSubmatch(node, -1) {
		color := engine.Black
		if m[1] == "AW" {
			color = engine.White
		}
		for _, v := range sgfValueRE.FindAllStringSubmatch(m[2], -1) {
			at, err := parseSGFPoint(v[1], rec.Width, rec.Height)
			if err != nil {
				return fmt.Errorf("setup stone: %w", err)
			}
			if at.IsPass() {
				return fmt.Errorf("setup stone: empty point %q", v[1])
			}
			rec.AddSetup(color, at)
		}
	}

	if v, ok := props["B"]; ok {
		at, err := parseSGFPoint(v, rec.Width, rec.Height)
		if err != nil {
			return fmt.Errorf("black move %d: %w", len(rec.Moves)+1, err)
		}
		rec.Moves = append(rec.Moves, Move{Color: engine.Black, At: at, Comment: props["C"]})
		return nil
	}
	if v, ok := props["W"]; ok {
		at, err := parseSGFPoint(v, rec.Width, rec.Height)
		if err != nil {
			return fmt.Errorf("white move %d: %w", len(rec.Moves)+1, err)
		}
		rec.Moves = append(rec.Moves, Move{Color: engine.White, At: at, Comment: props["C"]})
		return nil
	}

	if pb, ok := props["PB"]; ok {
		rec.BlackPlayer = pb
	}
	if pw, ok := props["PW"]; ok {
		rec.WhitePlayer = pw
	}
	if dt, ok := props["DT"]; ok {
		rec.Date = dt
	}
	if ev, ok := props["EV"]; ok {
		rec.Event = ev
	}
	if pc, ok := props["PC"]; ok {
		rec.Place = pc
	}
	if re, ok := props["RE"]; ok {
		rec.Result = re
	}
	if km, ok := props["KM"]; ok {
		rec.Komi, _ = strconv.ParseFloat(km, 64)
	}
	if ha, ok := props["HA"]; ok {
		rec.Handicap, _ = strconv.Atoi(ha)
	}
	if c, ok := props["C"]; ok {
		rec.Comment = c
	}
	return nil
}

// parseSGFProperties extracts all scalar properties from SGF content.
func parseSGFProperties(content string) map[string]string {
	props := make(map[string]string)

	matches := sgfPropertyRE.FindAllStringSubmatch(content, -1)
	for _, m := range matches {
		if len(m) >= 3 {
			props[m[1]] = m[2]
		}
	}

	return props
}

// parseSGFSize reads SZ: "9" for a square board, "9:13" for columns by
// rows.
func parseSGFSize(sz string) (width, height int, err error) {
	parts := strings.SplitN(sz, ":", 2)
	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad SZ value %q", sz)
	}
	height = width
	if len(parts) == 2 {
		height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("bad SZ value %q", sz)
		}
	}
	if width < 1 || width > engine.MaxBoardDim || height < 1 || height > engine.MaxBoardDim {
		return 0, 0, fmt.Errorf("unsupported SZ value %q", sz)
	}
	return width, height, nil
}

// parseSGFPoint reads an SGF point: two lowercase letters, column then
// row counted from the top. An empty value is a pass, and so is the
// historical "tt" on boards up to 19x19.
func parseSGFPoint(s string, width, height int) (engine.Coord, error) {
	if s == "" || s == "tt" {
		return engine.Pass, nil
	}
	if len(s) != 2 || s[0] < 'a' || s[0] > 'z' || s[1] < 'a' || s[1] > 'z' {
		return engine.Coord{}, fmt.Errorf("bad SGF point %q", s)
	}
	x := int(s[0] - 'a')
	row := int(s[1] - 'a')
	if x >= width || row >= height {
		return engine.Coord{}, fmt.Errorf("SGF point %q outside %dx%d board", s, width, height)
	}
	return engine.Coord{X: x, Y: height - 1 - row}, nil
}

// formatSGFPoint renders a coordinate as an SGF point, or an empty value
// for a pass.
func formatSGFPoint(c engine.Coord, height int) string {
	if c.IsPass() {
		return ""
	}
	return string([]byte{byte('a' + c.X), byte('a' + height - 1 - c.Y)})
}

// ExportSGF writes a record in SGF format.
func ExportSGF(w io.Writer, rec *Record) error {
	fmt.Fprintf(w, "(;FF[4]GM[1]AP[goengine:1.0]\n")

	if rec.Width == rec.Height {
		fmt.Fprintf(w, "SZ[%d]", rec.Width)
	} else {
		fmt.Fprintf(w, "SZ[%d:%d]", rec.Width, rec.Height)
	}
	fmt.Fprintf(w, "KM[%g]", rec.Komi)
	if rec.Handicap > 0 {
		fmt.Fprintf(w, "HA[%d]", rec.Handicap)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "PB[%s]PW[%s]\n", rec.BlackPlayer, rec.WhitePlayer)
	if rec.Date != "" {
		fmt.Fprintf(w, "DT[%s]\n", rec.Date)
	}
	if rec.Event != "" {
		fmt.Fprintf(w, "EV[%s]\n", rec.Event)
	}
	if rec.Place != "" {
		fmt.Fprintf(w, "PC[%s]\n", rec.Place)
	}
	if rec.Result != "" {
		fmt.Fprintf(w, "RE[%s]\n", rec.Result)
	}
	if rec.Comment != "" {
		fmt.Fprintf(w, "C[%s]\n", rec.Comment)
	}

	writeSetup(w, "AB", rec.Setup, engine.Black, rec.Height)
	writeSetup(w, "AW", rec.Setup, engine.White, rec.Height)

	for _, m := range rec.Moves {
		colorChar := "B"
		if m.Color == engine.White {
			colorChar = "W"
		}
		fmt.Fprintf(w, ";%s[%s]", colorChar, formatSGFPoint(m.At, rec.Height))
		if m.Comment != "" {
			fmt.Fprintf(w, "C[%s]", m.Comment)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, ")\n")
	return nil
}

// writeSetup writes one color's setup stones as a multi-valued property.
func writeSetup(w io.Writer, prop string, setup []Placement, color engine.Content, height int) {
	first := true
	for _, p := range setup {
		if p.Color != color {
			continue
		}
		if first {
			fmt.Fprintf(w, "%s", prop)
			first = false
		}
		fmt.Fprintf(w, "[%s]", formatSGFPoint(p.At, height))
	}
	if !first {
		fmt.Fprintf(w, "\n")
	}
}
