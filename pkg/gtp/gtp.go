// Package gtp implements the Go Text Protocol front end.
// This allows the engine to be driven by GTP controllers and graphical
// clients over stdin/stdout or a TCP socket.
//
// Protocol overview:
// - Commands arrive one per line: [id] command [arguments]
// - Responses start with "=" (success) or "?" (failure), echo the
//   command id, and end with a blank line
// - Vertices use column letters with I skipped: "A1".."T19", "pass"
package gtp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yourusername/goengine/pkg/engine"
	"github.com/yourusername/goengine/pkg/game"
)

// commandNames lists every command this server understands, in the
// order list_commands reports them.
var commandNames = []string{
	"boardsize",
	"captures",
	"clear_board",
	"final_score",
	"fixed_handicap",
	"known_command",
	"komi",
	"legal_moves",
	"list_commands",
	"name",
	"play",
	"protocol_version",
	"quit",
	"showboard",
	"undo",
	"version",
}

// Session is one GTP conversation: the current game plus the settings a
// controller may change. A session is not safe for concurrent use; the
// server gives every connection its own.
type Session struct {
	opts  Options
	komi  float64
	games []*engine.Game // played states, last entry is current
}

// NewSession creates a session with an empty board of the configured
// size.
func NewSession(opts Options) (*Session, error) {
	s := &Session{opts: opts, komi: opts.Komi}
	if err := s.reset(opts.BoardSize, opts.BoardSize); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) current() *engine.Game {
	return s.games[len(s.games)-1]
}

func (s *Session) reset(width, height int) error {
	g, err := engine.NewGame(width, height)
	if err != nil {
		return err
	}
	s.games = []*engine.Game{g}
	return nil
}

// Serve runs the GTP loop until quit or end of input. Blank lines and
// # comments are skipped silently, as the protocol requires.
func (s *Session) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		id, name, args := splitCommand(scanner.Text())
		if name == "" {
			continue
		}
		if name == "quit" {
			writeResponse(w, id, true, "")
			return nil
		}
		body, err := s.dispatch(name, args)
		if err != nil {
			writeResponse(w, id, false, err.Error())
			continue
		}
		writeResponse(w, id, true, body)
	}
	return scanner.Err()
}

// dispatch runs one command and returns the response body.
func (s *Session) dispatch(name string, args []string) (string, error) {
	switch name {
	case "protocol_version":
		return "2", nil

	case "name":
		return s.opts.Name, nil

	case "version":
		return s.opts.Version, nil

	case "known_command":
		if len(args) != 1 {
			return "", fmt.Errorf("known_command takes one argument")
		}
		return strconv.FormatBool(knownCommand(args[0])), nil

	case "list_commands":
		return strings.Join(commandNames, "\n"), nil

	case "boardsize":
		return "", s.handleBoardsize(args)

	case "clear_board":
		b := s.current().Board()
		return "", s.reset(b.Width(), b.Height())

	case "komi":
		if len(args) != 1 {
			return "", fmt.Errorf("komi takes one argument")
		}
		k, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return "", fmt.Errorf("komi not a float")
		}
		s.komi = k
		return "", nil

	case "play":
		return "", s.handlePlay(args)

	case "undo":
		if len(s.games) == 1 {
			return "", fmt.Errorf("cannot undo")
		}
		s.games = s.games[:len(s.games)-1]
		return "", nil

	case "fixed_handicap":
		return s.handleFixedHandicap(args)

	case "showboard":
		return s.current().Board().String(), nil

	case "legal_moves":
		return s.handleLegalMoves(args)

	case "captures":
		if len(args) != 1 {
			return "", fmt.Errorf("captures takes a color")
		}
		color, err := parseColor(args[0])
		if err != nil {
			return "", err
		}
		return strconv.Itoa(s.current().Captures(color)), nil

	case "final_score":
		score := game.ResultString(s.current().Board(), s.komi)
		if score == "Draw" {
			score = "0"
		}
		return score, nil

	default:
		return "", fmt.Errorf("unknown command")
	}
}

// handleBoardsize resizes and clears the board. A second argument makes
// the board rectangular.
func (s *Session) handleBoardsize(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("boardsize takes one or two arguments")
	}
	width, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("boardsize not an integer")
	}
	height := width
	if len(args) == 2 {
		height, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("boardsize not an integer")
		}
	}
	if err := s.reset(width, height); err != nil {
		return fmt.Errorf("unacceptable size")
	}
	return nil
}

// handlePlay applies one move. Moves the rules reject leave the game
// untouched and report "illegal move", as GTP controllers expect.
func (s *Session) handlePlay(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("play takes a color and a vertex")
	}
	color, err := parseColor(args[0])
	if err != nil {
		return fmt.Errorf("invalid color or coordinate")
	}
	g := s.current()
	at, err := engine.ParseVertex(args[1], g.Board().Width(), g.Board().Height())
	if err != nil {
		return fmt.Errorf("invalid color or coordinate")
	}
	if g.Ended() {
		return fmt.Errorf("illegal move")
	}
	g.SetToMove(color)
	next, verdict := g.Apply(at)
	if !verdict.IsLegal() {
		return fmt.Errorf("illegal move")
	}
	s.games = append(s.games, next)
	return nil
}

// handleFixedHandicap puts n stones on the star points of a fresh board
// and reports their vertices.
func (s *Session) handleFixedHandicap(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("fixed_handicap takes one argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("handicap not an integer")
	}
	g := s.current()
	points, err := engine.HandicapPoints(g.Board().Width(), g.Board().Height(), n)
	if err != nil {
		return "", fmt.Errorf("invalid number of stones")
	}
	if err := g.PlaceHandicap(n); err != nil {
		return "", fmt.Errorf("board not empty")
	}
	vertices := make([]string, len(points))
	for i, p := range points {
		vertices[i] = p.Vertex()
	}
	return strings.Join(vertices, " "), nil
}

// handleLegalMoves lists every legal vertex for a color, pass included
// when the rules offer it.
func (s *Session) handleLegalMoves(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("legal_moves takes a color")
	}
	color, err := parseColor(args[0])
	if err != nil {
		return "", err
	}
	moves := s.current().LegalMoves(color)
	vertices := make([]string, len(moves))
	for i, m := range moves {
		vertices[i] = m.Vertex()
	}
	return strings.Join(vertices, " "), nil
}

// parseColor reads a GTP color argument.
func parseColor(s string) (engine.Content, error) {
	switch strings.ToLower(s) {
	case "b", "black":
		return engine.Black, nil
	case "w", "white":
		return engine.White, nil
	}
	return engine.Empty, fmt.Errorf("invalid color")
}

// knownCommand reports whether name is in the command set.
func knownCommand(name string) bool {
	name = strings.ToLower(name)
	for _, c := range commandNames {
		if c == name {
			return true
		}
	}
	return false
}

// splitCommand strips comments and whitespace from an input line and
// peels off the numeric command id if one is present.
func splitCommand(line string) (id, name string, args []string) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", "", nil
	}
	if isCommandID(fields[0]) {
		id = fields[0]
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return id, "", nil
	}
	return id, strings.ToLower(fields[0]), fields[1:]
}

func isCommandID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// writeResponse frames one GTP response: status character, optional id,
// the body, then the blank line that terminates every response.
func writeResponse(w io.Writer, id string, ok bool, body string) {
	status := "="
	if !ok {
		status = "?"
	}
	body = strings.TrimRight(body, "\n")
	if body == "" {
		fmt.Fprintf(w, "%s%s\n\n", status, id)
		return
	}
	fmt.Fprintf(w, "%s%s %s\n\n", status, id, body)
}
