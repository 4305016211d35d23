// goengine - rules engine and record tooling for the game of Go
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/yourusername/goengine/internal/positionid"
	"github.com/yourusername/goengine/pkg/engine"
	"github.com/yourusername/goengine/pkg/game"
	"github.com/yourusername/goengine/pkg/gtp"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "play":
		cmdPlay(args)
	case "legal":
		cmdLegal(args)
	case "score":
		cmdScore(args)
	case "show":
		cmdShow(args)
	case "sgf":
		cmdSGF(args)
	case "gtp":
		cmdGTP(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`goengine - Go rules engine

Usage: goengine <command> [options]

Commands:
  play      Apply a move sequence to a board and print the result
  legal     Enumerate legal moves for a position
  score     Score a position (territory counting)
  show      Decode a position ID or inspect the position catalog
  sgf       Inspect or convert game records (SGF and kifu)
  gtp       Speak GTP on stdin/stdout or over TCP

Use "goengine <command> -h" for command-specific help.

Position ID Format:
  Positions are compact URL-safe strings carrying the board size and
  both stone planes, as printed by play/show and the HTTP API.
  Example: goengine show -position "CQkAAAAAAAAAAAAAAAAAAAAAAAEA"`)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func boardFromFlag(pos string) *engine.Board {
	b, err := positionid.BoardFromPositionID(pos)
	if err != nil {
		fatalf("invalid position ID: %v", err)
	}
	return b
}

func parseColor(s string) engine.Content {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "b", "black":
		return engine.Black
	case "w", "white":
		return engine.White
	}
	fatalf("bad color %q (want black or white)", s)
	return engine.Empty
}

// splitMoves reads a move list: vertices separated by commas or spaces.
func splitMoves(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return fields
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	size := fs.Int("size", 19, "Board size for a fresh square board")
	width := fs.Int("width", 0, "Board width (overrides -size)")
	height := fs.Int("height", 0, "Board height (overrides -size)")
	movesFlag := fs.String("moves", "", `Moves to apply, e.g. "C3,D4,pass"`)
	movesShort := fs.String("m", "", "Moves (short form)")
	posFlag := fs.String("position", "", "Position ID to start from instead of an empty board")
	toMove := fs.String("to-move", "", "Side to move first when starting from a position ID")
	fs.Parse(args)

	moveList := *movesFlag
	if moveList == "" {
		moveList = *movesShort
	}
	if moveList == "" {
		fmt.Fprintln(os.Stderr, "Error: moves required")
		fmt.Fprintln(os.Stderr, `Usage: goengine play -moves "C3,D4,pass" [-size N | -position <id>]`)
		os.Exit(1)
	}

	var g *engine.Game
	var err error
	if *posFlag != "" {
		g = engine.NewGameFromBoard(boardFromFlag(*posFlag), parseColor(*toMove))
	} else {
		w, h := *size, *size
		if *width > 0 {
			w = *width
			h = *width
		}
		if *height > 0 {
			h = *height
		}
		g, err = engine.NewGame(w, h)
		if err != nil {
			fatalf("%v", err)
		}
	}

	for i, v := range splitMoves(moveList) {
		if g.Ended() {
			fatalf("move %d (%s): game already ended", i+1, v)
		}
		at, err := engine.ParseVertex(v, g.Board().Width(), g.Board().Height())
		if err != nil {
			fatalf("move %d: %v", i+1, err)
		}
		color := g.ToMove()
		next, verdict := g.Apply(at)
		fmt.Printf("  %2d. %-5s %-5s %s\n", i+1, color, at.Vertex(), verdict)
		if !verdict.IsLegal() {
			continue // keep the previous state, try the rest
		}
		g = next
	}

	fmt.Println()
	fmt.Println(g.Board())
	if g.Ended() {
		fmt.Println("Game over (two consecutive passes).")
	} else {
		fmt.Printf("To move: %s\n", g.ToMove())
	}
	fmt.Printf("Captures: Black %d, White %d\n",
		g.Captures(engine.Black), g.Captures(engine.White))
	fmt.Printf("Position: %s\n", positionid.PositionID(g.Board()))
}

func cmdLegal(args []string) {
	fs := flag.NewFlagSet("legal", flag.ExitOnError)
	posFlag := fs.String("position", "", "Position ID")
	posShort := fs.String("p", "", "Position ID (short form)")
	size := fs.Int("size", 0, "Use an empty square board of this size instead")
	toMove := fs.String("to-move", "", "Side to move (default black)")
	fs.Parse(args)

	pos := *posFlag
	if pos == "" {
		pos = *posShort
	}

	var b *engine.Board
	var err error
	switch {
	case pos != "":
		b = boardFromFlag(pos)
	case *size > 0:
		b, err = engine.NewBoard(*size, *size)
		if err != nil {
			fatalf("%v", err)
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: position or size required")
		fmt.Fprintln(os.Stderr, "Usage: goengine legal -position <id> [-to-move white]")
		os.Exit(1)
	}

	color := parseColor(*toMove)
	moves := engine.NewGameFromBoard(b, color).LegalMoves(color)

	fmt.Printf("Legal moves for %s (%d):\n", color, len(moves))
	for i, m := range moves {
		fmt.Printf("%-5s", m.Vertex())
		if (i+1)%12 == 0 {
			fmt.Println()
		}
	}
	if len(moves)%12 != 0 {
		fmt.Println()
	}
}

func cmdScore(args []string) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	posFlag := fs.String("position", "", "Position ID")
	posShort := fs.String("p", "", "Position ID (short form)")
	komi := fs.Float64("komi", game.DefaultKomi, "Points added to White's total")
	dead := fs.String("dead", "", `Stones of groups to mark dead, e.g. "C2,G5"`)
	fs.Parse(args)

	pos := *posFlag
	if pos == "" {
		pos = *posShort
	}
	if pos == "" {
		fmt.Fprintln(os.Stderr, "Error: position required")
		fmt.Fprintln(os.Stderr, `Usage: goengine score -position <id> [-komi 6.5] [-dead "C2,G5"]`)
		os.Exit(1)
	}

	b := boardFromFlag(pos)
	b.SetScoring(true)

	for _, v := range splitMoves(*dead) {
		at, err := engine.ParseVertex(v, b.Width(), b.Height())
		if err != nil {
			fatalf("%v", err)
		}
		if at.IsPass() || b.Get(at.X, at.Y) == engine.Empty {
			fatalf("no stone at %s", v)
		}
		b.ToggleDeadGroup(at.X, at.Y)
	}

	black, white := b.Territory()
	fmt.Println(b)
	fmt.Printf("Territory: Black %d, White %d\n", black, white)
	fmt.Printf("Komi: %g\n", *komi)
	fmt.Printf("Result: %s\n", game.ResultString(b, *komi))
}

func cmdShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	posFlag := fs.String("position", "", "Position ID to decode")
	posShort := fs.String("p", "", "Position ID (short form)")
	name := fs.String("name", "", "Catalog position to show")
	search := fs.String("search", "", "Search the catalog")
	list := fs.Bool("list", false, "List the whole catalog")
	fs.Parse(args)

	db := engine.DefaultPositionDB()

	switch {
	case *list:
		printCatalog(db.All())
		return
	case *search != "":
		entries := db.Search(*search)
		if len(entries) == 0 {
			fmt.Printf("No catalog positions match %q.\n", *search)
			return
		}
		printCatalog(entries)
		return
	case *name != "":
		entry := db.Get(*name)
		if entry == nil {
			fatalf("no catalog position named %q (try -list)", *name)
		}
		b, err := entry.Board()
		if err != nil {
			fatalf("catalog diagram: %v", err)
		}
		fmt.Printf("%s (%s)\n", entry.Name, entry.Category)
		fmt.Printf("%s\n\n", entry.Description)
		fmt.Println(b)
		fmt.Printf("To move:  %s\n", entry.ToMove)
		fmt.Printf("Tags:     %s\n", strings.Join(entry.Tags, ", "))
		fmt.Printf("Position: %s\n", positionid.PositionID(b))
		return
	}

	pos := *posFlag
	if pos == "" {
		pos = *posShort
	}
	if pos == "" {
		fmt.Fprintln(os.Stderr, "Error: position, name, search or list required")
		fmt.Fprintln(os.Stderr, "Usage: goengine show -position <id> | -name <catalog> | -search <q> | -list")
		os.Exit(1)
	}

	b := boardFromFlag(pos)
	fmt.Println(b)
	fmt.Printf("Size:        %dx%d\n", b.Width(), b.Height())
	fmt.Printf("Phase:       %s\n", engine.ClassifyPosition(b))
	fmt.Printf("Fingerprint: %016x\n", b.Fingerprint())
	fmt.Printf("Position:    %s\n", positionid.PositionID(b))

	if similar := db.FindSimilar(b, 3); len(similar) > 0 {
		fmt.Println("Similar catalog positions:")
		for _, s := range similar {
			fmt.Printf("  %-18s %3.0f%%  %s\n", s.Entry.Name, s.Similarity*100, s.Entry.Description)
		}
	}
}

func printCatalog(entries []*engine.PositionEntry) {
	for _, e := range entries {
		fmt.Printf("  %-18s %-11s %s\n", e.Name, e.Category, e.Description)
	}
}

func cmdSGF(args []string) {
	fs := flag.NewFlagSet("sgf", flag.ExitOnError)
	fileFlag := fs.String("file", "", `Record to read ("-" for stdin)`)
	fileShort := fs.String("f", "", "Record file (short form)")
	kifu := fs.Bool("kifu", false, "Input is kifu text rather than SGF")
	out := fs.String("out", "", "Write a converted copy (.sgf for SGF, anything else for kifu)")
	fs.Parse(args)

	path := *fileFlag
	if path == "" {
		path = *fileShort
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: file required")
		fmt.Fprintln(os.Stderr, "Usage: goengine sgf -file game.sgf [-out game.txt]")
		os.Exit(1)
	}

	r := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fatalf("%v", err)
		}
		defer f.Close()
		r = f
	}

	var rec *game.Record
	var err error
	if *kifu {
		rec, err = game.ImportKifu(r)
	} else {
		rec, err = game.ImportSGF(r)
	}
	if err != nil {
		fatalf("%v", err)
	}

	g, err := rec.Replay()
	if err != nil {
		fatalf("replay: %v", err)
	}

	fmt.Printf("Black:  %s\n", orUnknown(rec.BlackPlayer))
	fmt.Printf("White:  %s\n", orUnknown(rec.WhitePlayer))
	fmt.Printf("Board:  %dx%d, komi %g", rec.Width, rec.Height, rec.Komi)
	if rec.Handicap > 0 {
		fmt.Printf(", handicap %d", rec.Handicap)
	}
	fmt.Println()
	fmt.Printf("Moves:  %d\n", len(rec.Moves))

	result := rec.Result
	if result == "" && g.Ended() {
		result = game.ResultString(g.Board(), rec.Komi)
	}
	if result != "" {
		fmt.Printf("Result: %s\n", result)
	}
	fmt.Println()
	fmt.Println(g.Board())

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fatalf("%v", err)
		}
		defer f.Close()
		if strings.EqualFold(filepath.Ext(*out), ".sgf") {
			err = game.ExportSGF(f, rec)
		} else {
			err = game.ExportKifu(f, rec)
		}
		if err != nil {
			fatalf("writing %s: %v", *out, err)
		}
		fmt.Printf("Wrote %s\n", *out)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}

func cmdGTP(args []string) {
	fs := flag.NewFlagSet("gtp", flag.ExitOnError)
	tcp := fs.Bool("tcp", false, "Serve GTP over TCP instead of stdin/stdout")
	port := fs.Int("port", 1234, "TCP port for -tcp mode")
	size := fs.Int("size", 19, "Initial board size")
	komi := fs.Float64("komi", game.DefaultKomi, "Initial komi")
	fs.Parse(args)

	opts := gtp.DefaultOptions()
	opts.Port = *port
	opts.BoardSize = *size
	opts.Komi = *komi

	if *tcp {
		srv := gtp.NewServer(opts)
		if err := srv.Start(); err != nil {
			fatalf("%v", err)
		}
		fmt.Fprintf(os.Stderr, "GTP server listening on port %d\n", opts.Port)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		srv.Stop()
		return
	}

	sess, err := gtp.NewSession(opts)
	if err != nil {
		fatalf("%v", err)
	}
	if err := sess.Serve(os.Stdin, os.Stdout); err != nil {
		fatalf("%v", err)
	}
}
