package gtp

import (
	"bytes"
	"strings"
	"testing"
)

// runTranscript feeds a command script to a fresh session and returns
// everything it wrote.
func runTranscript(t *testing.T, input string) string {
	t.Helper()
	s, err := NewSession(DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	var out bytes.Buffer
	if err := s.Serve(strings.NewReader(input), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return out.String()
}

func TestProtocolBasics(t *testing.T) {
	got := runTranscript(t, "protocol_version\nname\nversion\nquit\n")
	want := "= 2\n\n= goengine\n\n= 1.0\n\n=\n\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestCommandIDEchoed(t *testing.T) {
	got := runTranscript(t, "42 name\n")
	want := "=42 goengine\n\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestUnknownCommand(t *testing.T) {
	got := runTranscript(t, "tenuki\n")
	want := "? unknown command\n\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestQuitStopsProcessing(t *testing.T) {
	got := runTranscript(t, "quit\nname\n")
	want := "=\n\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestCommentsAndBlankLinesSkipped(t *testing.T) {
	got := runTranscript(t, "# greeting\n\n   \nprotocol_version # trailing\n")
	want := "= 2\n\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestKnownCommand(t *testing.T) {
	got := runTranscript(t, "known_command play\nknown_command tenuki\n")
	want := "= true\n\n= false\n\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestListCommands(t *testing.T) {
	got := runTranscript(t, "list_commands\n")
	for _, name := range commandNames {
		if !strings.Contains(got, name) {
			t.Errorf("list_commands output missing %q:\n%s", name, got)
		}
	}
	if !strings.HasPrefix(got, "= boardsize\n") {
		t.Errorf("list_commands should start with boardsize:\n%s", got)
	}
}

func TestBoardsizeAndShowboard(t *testing.T) {
	got := runTranscript(t, "boardsize 9\nplay b D4\nshowboard\n")
	if !strings.Contains(got, "X") {
		t.Errorf("showboard should show the played stone:\n%s", got)
	}
	if !strings.Contains(got, "A B C D E F G H J") {
		t.Errorf("showboard should label 9 columns with I skipped:\n%s", got)
	}
}

func TestBoardsizeRectangular(t *testing.T) {
	got := runTranscript(t, "boardsize 5 3\nshowboard\n")
	if !strings.Contains(got, "A B C D E") {
		t.Errorf("board should be 5 wide:\n%s", got)
	}
	if !strings.Contains(got, " 3 ") || strings.Contains(got, " 4 ") {
		t.Errorf("board should be 3 tall:\n%s", got)
	}
}

func TestBoardsizeErrors(t *testing.T) {
	got := runTranscript(t, "boardsize 25\nboardsize foo\nboardsize\n")
	if !strings.Contains(got, "? unacceptable size") {
		t.Errorf("oversized board should be rejected:\n%s", got)
	}
	if !strings.Contains(got, "? boardsize not an integer") {
		t.Errorf("non-numeric size should be rejected:\n%s", got)
	}
}

func TestPlayRejectsIllegalAndKeepsState(t *testing.T) {
	got := runTranscript(t, "boardsize 5\nplay b C3\nplay w C3\ncaptures b\ncaptures w\n")
	if !strings.Contains(got, "? illegal move") {
		t.Errorf("occupied cell should be an illegal move:\n%s", got)
	}
	if !strings.Contains(got, "= 0\n\n= 0\n\n") {
		t.Errorf("rejected move should leave captures untouched:\n%s", got)
	}
}

func TestPlaySuicideRejected(t *testing.T) {
	got := runTranscript(t, "boardsize 1\nplay b A1\nshowboard\n")
	if !strings.Contains(got, "? illegal move") {
		t.Errorf("suicide should be an illegal move:\n%s", got)
	}
	if strings.Contains(got, "X") {
		t.Errorf("rejected suicide should leave the board empty:\n%s", got)
	}
}

func TestPlayBadArguments(t *testing.T) {
	got := runTranscript(t, "boardsize 9\nplay purple D4\nplay b I5\nplay b\n")
	if strings.Count(got, "?") != 3 {
		t.Errorf("all three plays should fail:\n%s", got)
	}
	if !strings.Contains(got, "invalid color or coordinate") {
		t.Errorf("bad arguments should name the problem:\n%s", got)
	}
}

func TestCapturesAfterCapture(t *testing.T) {
	got := runTranscript(t, "boardsize 1 2\nplay b A1\nplay w A2\ncaptures w\ncaptures b\n")
	if !strings.Contains(got, "= 1\n\n= 0\n\n") {
		t.Errorf("White should hold one prisoner:\n%s", got)
	}
}

func TestUndo(t *testing.T) {
	got := runTranscript(t, "boardsize 5\nplay b C3\nundo\nshowboard\nundo\n")
	if strings.Contains(got, "X") {
		t.Errorf("undo should take the stone back off:\n%s", got)
	}
	if !strings.Contains(got, "? cannot undo") {
		t.Errorf("undo past the start should fail:\n%s", got)
	}
}

func TestFixedHandicap(t *testing.T) {
	got := runTranscript(t, "boardsize 9\nfixed_handicap 4\n")
	if !strings.Contains(got, "= C3 G7 G3 C7") {
		t.Errorf("handicap stones should be listed in placement order:\n%s", got)
	}

	got = runTranscript(t, "boardsize 9\nplay b E5\nfixed_handicap 2\n")
	if !strings.Contains(got, "? board not empty") {
		t.Errorf("handicap needs a fresh board:\n%s", got)
	}

	got = runTranscript(t, "boardsize 9\nfixed_handicap 10\n")
	if !strings.Contains(got, "? invalid number of stones") {
		t.Errorf("handicap 10 should be rejected:\n%s", got)
	}
}

func TestLegalMoves(t *testing.T) {
	got := runTranscript(t, "boardsize 1 3\nlegal_moves b\nplay b A2\nlegal_moves w\n")
	if !strings.Contains(got, "= A1 A2 A3\n") {
		t.Errorf("open column should offer every cell:\n%s", got)
	}
	if !strings.Contains(got, "= pass\n") {
		t.Errorf("White should be down to the pass:\n%s", got)
	}
}

func TestKomiAndFinalScore(t *testing.T) {
	got := runTranscript(t, "komi 0.5\nfinal_score\n")
	if !strings.Contains(got, "= W+0.5") {
		t.Errorf("empty board should score komi only:\n%s", got)
	}

	got = runTranscript(t, "boardsize 1 2\nplay b A1\nplay w A2\nfinal_score\n")
	if !strings.Contains(got, "= W+7.5") {
		t.Errorf("lone White stone plus default komi should win by 7.5:\n%s", got)
	}

	got = runTranscript(t, "komi 0\nfinal_score\n")
	if !strings.Contains(got, "= 0\n") {
		t.Errorf("a drawn position should score 0:\n%s", got)
	}
}

func TestKomiErrors(t *testing.T) {
	got := runTranscript(t, "komi seven\n")
	if !strings.Contains(got, "? komi not a float") {
		t.Errorf("non-numeric komi should be rejected:\n%s", got)
	}
}

func TestClearBoardKeepsSize(t *testing.T) {
	got := runTranscript(t, "boardsize 5\nplay b C3\nclear_board\nshowboard\n")
	if strings.Contains(got, "X") {
		t.Errorf("clear_board should empty the board:\n%s", got)
	}
	if !strings.Contains(got, "A B C D E") {
		t.Errorf("clear_board should keep the 5x5 size:\n%s", got)
	}
}
