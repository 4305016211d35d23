package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/yourusername/goengine/internal/positionid"
	"github.com/yourusername/goengine/internal/storage"
	"github.com/yourusername/goengine/pkg/engine"
)

func f64(v float64) *float64 { return &v }

// postJSON runs one handler with a JSON body. A string body is sent
// verbatim so tests can post malformed JSON.
func postJSON(handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	var data []byte
	if s, ok := body.(string); ok {
		data = []byte(s)
	} else {
		data, _ = json.Marshal(body)
	}
	req := httptest.NewRequest("POST", "/api/test", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

// withRouteParam attaches a chi URL parameter to a request, standing in
// for the router in direct handler tests.
func withRouteParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Result().Body).Decode(&v); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}

// newGame creates a session through the handler and fails the test if
// that does not work.
func newGame(t *testing.T, h *Handlers, req NewGameRequest) SessionResponse {
	t.Helper()
	w := postJSON(h.NewGame, req)
	if w.Code != http.StatusOK {
		t.Fatalf("NewGame status = %d, body %s", w.Code, w.Body.String())
	}
	return decode[SessionResponse](t, w)
}

func playMoves(t *testing.T, h *Handlers, sessionID string, moves ...string) MoveResponse {
	t.Helper()
	var last MoveResponse
	for _, m := range moves {
		w := postJSON(h.Move, MoveRequest{SessionID: sessionID, Move: m})
		if w.Code != http.StatusOK {
			t.Fatalf("Move %q status = %d, body %s", m, w.Code, w.Body.String())
		}
		last = decode[MoveResponse](t, w)
		if !last.Legal {
			t.Fatalf("Move %q verdict = %q, want legal", m, last.Verdict)
		}
	}
	return last
}

func TestHealthHandler(t *testing.T) {
	h := NewHandlers(nil, "test-version")

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Health status = %d, want %d", w.Code, http.StatusOK)
	}
	health := decode[HealthResponse](t, w)
	if health.Status != "ok" {
		t.Errorf("Status = %q, want %q", health.Status, "ok")
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want %q", health.Version, "test-version")
	}
	if health.Ready {
		t.Error("Ready = true without an archive store")
	}
	if health.Pool != nil {
		t.Error("Pool stats reported without a pool")
	}
}

func TestHealthHandlerReady(t *testing.T) {
	store, err := storage.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	h := NewHandlersWithPool(store, "1.0.0", NewWorkerPool(DefaultPoolConfig()))

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	health := decode[HealthResponse](t, w)
	if !health.Ready {
		t.Error("Ready = false with an archive store")
	}
	if health.Pool == nil {
		t.Error("Pool stats missing with a pool configured")
	}
}

func TestNewGameHandler(t *testing.T) {
	h := NewHandlers(nil, "test")

	t.Run("defaults", func(t *testing.T) {
		state := newGame(t, h, NewGameRequest{})
		if state.Width != 19 || state.Height != 19 {
			t.Errorf("size = %dx%d, want 19x19", state.Width, state.Height)
		}
		if state.Komi != 6.5 {
			t.Errorf("Komi = %g, want 6.5", state.Komi)
		}
		if state.ToMove != "black" {
			t.Errorf("ToMove = %q, want black", state.ToMove)
		}
		if state.SessionID == "" {
			t.Error("SessionID is empty")
		}
		if state.PositionID == "" {
			t.Error("PositionID is empty")
		}
	})

	t.Run("rectangle", func(t *testing.T) {
		state := newGame(t, h, NewGameRequest{Width: 9, Height: 13})
		if state.Width != 9 || state.Height != 13 {
			t.Errorf("size = %dx%d, want 9x13", state.Width, state.Height)
		}
	})

	t.Run("handicap", func(t *testing.T) {
		state := newGame(t, h, NewGameRequest{Width: 9, Height: 9, Handicap: 2})
		if state.Handicap != 2 {
			t.Errorf("Handicap = %d, want 2", state.Handicap)
		}
		if state.ToMove != "white" {
			t.Errorf("ToMove = %q, want white after handicap placement", state.ToMove)
		}
		if n := strings.Count(state.Board, "X"); n != 2 {
			t.Errorf("board has %d black stones, want 2:\n%s", n, state.Board)
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name     string
			body     interface{}
			wantCode string
		}{
			{"oversized board", NewGameRequest{Width: 40}, "INVALID_GAME"},
			{"handicap one", NewGameRequest{Width: 9, Height: 9, Handicap: 1}, "INVALID_GAME"},
			{"handicap on tiny board", NewGameRequest{Width: 5, Height: 5, Handicap: 2}, "INVALID_GAME"},
			{"invalid json", "not json", "INVALID_JSON"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				w := postJSON(h.NewGame, tc.body)
				if w.Code != http.StatusBadRequest {
					t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
				}
				if code := errorCode(t, w); code != tc.wantCode {
					t.Errorf("Code = %q, want %q", code, tc.wantCode)
				}
			})
		}
	})
}

func TestMoveHandler(t *testing.T) {
	h := NewHandlers(nil, "test")
	state := newGame(t, h, NewGameRequest{Width: 5, Height: 5})

	resp := playMoves(t, h, state.SessionID, "C3")
	if resp.Verdict != "legal" {
		t.Errorf("Verdict = %q, want legal", resp.Verdict)
	}
	if resp.MoveIndex != 1 {
		t.Errorf("MoveIndex = %d, want 1", resp.MoveIndex)
	}
	if resp.ToMove != "white" {
		t.Errorf("ToMove = %q, want white", resp.ToMove)
	}

	// Replaying the occupied point is rejected and leaves the session
	// where it was.
	w := postJSON(h.Move, MoveRequest{SessionID: state.SessionID, Move: "C3"})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	overwrite := decode[MoveResponse](t, w)
	if overwrite.Legal {
		t.Error("occupied point reported legal")
	}
	if overwrite.Verdict != "overwrite" {
		t.Errorf("Verdict = %q, want overwrite", overwrite.Verdict)
	}
	if overwrite.MoveIndex != 1 || overwrite.ToMove != "white" {
		t.Errorf("state after illegal move = move %d/%s, want 1/white",
			overwrite.MoveIndex, overwrite.ToMove)
	}

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"bad vertex", MoveRequest{SessionID: state.SessionID, Move: "Z9"}, http.StatusBadRequest, "INVALID_MOVE"},
		{"empty move", MoveRequest{SessionID: state.SessionID}, http.StatusBadRequest, "INVALID_MOVE"},
		{"unknown session", MoveRequest{SessionID: "nope", Move: "C3"}, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"missing session", MoveRequest{Move: "C3"}, http.StatusBadRequest, "MISSING_SESSION"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(h.Move, tc.body)
			if w.Code != tc.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tc.wantStatus)
			}
			if code := errorCode(t, w); code != tc.wantCode {
				t.Errorf("Code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestMoveHandlerCapture(t *testing.T) {
	h := NewHandlers(nil, "test")
	state := newGame(t, h, NewGameRequest{Width: 1, Height: 2})

	resp := playMoves(t, h, state.SessionID, "A1", "A2")
	if resp.CapturesWhite != 1 {
		t.Errorf("CapturesWhite = %d, want 1", resp.CapturesWhite)
	}
}

func TestPassHandlerEndsGame(t *testing.T) {
	h := NewHandlers(nil, "test")
	state := newGame(t, h, NewGameRequest{Width: 3, Height: 3})

	w := postJSON(h.Pass, SessionRequest{SessionID: state.SessionID})
	first := decode[MoveResponse](t, w)
	if first.Ended {
		t.Error("game ended after one pass")
	}
	if first.Passes != 1 {
		t.Errorf("Passes = %d, want 1", first.Passes)
	}

	w = postJSON(h.Pass, SessionRequest{SessionID: state.SessionID})
	second := decode[MoveResponse](t, w)
	if !second.Ended {
		t.Error("game not ended after two passes")
	}
	if !second.Scoring {
		t.Error("board not in scoring mode after the game ended")
	}

	// The finished game refuses more moves.
	w = postJSON(h.Move, MoveRequest{SessionID: state.SessionID, Move: "A1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != "GAME_ENDED" {
		t.Errorf("Code = %q, want GAME_ENDED", code)
	}
}

func TestLegalHandlerSession(t *testing.T) {
	h := NewHandlers(nil, "test")
	state := newGame(t, h, NewGameRequest{Width: 1, Height: 3})

	w := postJSON(h.Legal, LegalRequest{SessionID: state.SessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}
	legal := decode[LegalResponse](t, w)
	if legal.ToMove != "black" {
		t.Errorf("ToMove = %q, want black", legal.ToMove)
	}
	want := []string{"A1", "A2", "A3"}
	if legal.Count != len(want) || len(legal.Moves) != len(want) {
		t.Fatalf("Moves = %v, want %v", legal.Moves, want)
	}
	for i, m := range want {
		if legal.Moves[i] != m {
			t.Errorf("Moves[%d] = %q, want %q", i, legal.Moves[i], m)
		}
	}
	if legal.Cached {
		t.Error("session query reported cached")
	}

	w = postJSON(h.Legal, LegalRequest{SessionID: state.SessionID, ToMove: "w"})
	if got := decode[LegalResponse](t, w).ToMove; got != "white" {
		t.Errorf("ToMove = %q, want white", got)
	}
}

func TestLegalHandlerPosition(t *testing.T) {
	h := NewHandlers(nil, "test")

	b, err := engine.NewBoard(1, 3)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	pid := positionid.PositionID(b)

	w := postJSON(h.Legal, LegalRequest{Position: pid})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}
	first := decode[LegalResponse](t, w)
	if first.Count != 3 {
		t.Errorf("Count = %d, want 3", first.Count)
	}
	if first.ToMove != "black" {
		t.Errorf("ToMove = %q, want black by default", first.ToMove)
	}
	if first.Cached {
		t.Error("first position query reported cached")
	}

	// The identical query the second time comes from the cache.
	w = postJSON(h.Legal, LegalRequest{Position: pid})
	second := decode[LegalResponse](t, w)
	if !second.Cached {
		t.Error("repeat position query not cached")
	}
	if second.Count != first.Count {
		t.Errorf("cached Count = %d, want %d", second.Count, first.Count)
	}
}

func TestLegalHandlerErrors(t *testing.T) {
	h := NewHandlers(nil, "test")

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"no session or position", LegalRequest{}, http.StatusBadRequest, "MISSING_POSITION"},
		{"bad color", LegalRequest{Position: "x", ToMove: "purple"}, http.StatusBadRequest, "INVALID_COLOR"},
		{"bad position", LegalRequest{Position: "!!!"}, http.StatusBadRequest, "INVALID_POSITION"},
		{"unknown session", LegalRequest{SessionID: "nope"}, http.StatusNotFound, "SESSION_NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(h.Legal, tc.body)
			if w.Code != tc.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tc.wantStatus)
			}
			if code := errorCode(t, w); code != tc.wantCode {
				t.Errorf("Code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestScoreAndDeadHandlers(t *testing.T) {
	h := NewHandlers(nil, "test")
	state := newGame(t, h, NewGameRequest{Width: 3, Height: 3, Komi: f64(0)})

	// Black walls off the A column; the white stone at C2 keeps the C
	// column neutral.
	playMoves(t, h, state.SessionID, "B1", "C2", "B2")
	postJSON(h.Pass, SessionRequest{SessionID: state.SessionID})
	playMoves(t, h, state.SessionID, "B3")

	w := postJSON(h.Score, SessionRequest{SessionID: state.SessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("Score status = %d, body %s", w.Code, w.Body.String())
	}
	score := decode[ScoreResponse](t, w)
	if score.TerritoryBlack != 3 || score.TerritoryWhite != 0 {
		t.Errorf("territory = %d/%d, want 3/0", score.TerritoryBlack, score.TerritoryWhite)
	}
	if score.Result != "B+3" {
		t.Errorf("Result = %q, want B+3", score.Result)
	}

	// Marking the white stone dead concedes its point and cell.
	w = postJSON(h.Dead, DeadRequest{SessionID: state.SessionID, Vertex: "C2"})
	if w.Code != http.StatusOK {
		t.Fatalf("Dead status = %d, body %s", w.Code, w.Body.String())
	}
	dead := decode[ScoreResponse](t, w)
	if dead.TerritoryBlack != 5 {
		t.Errorf("TerritoryBlack with dead C2 = %d, want 5", dead.TerritoryBlack)
	}
	if dead.Result != "B+5" {
		t.Errorf("Result = %q, want B+5", dead.Result)
	}

	// Toggling back restores the plain count.
	w = postJSON(h.Dead, DeadRequest{SessionID: state.SessionID, Vertex: "C2"})
	if got := decode[ScoreResponse](t, w).TerritoryBlack; got != 3 {
		t.Errorf("TerritoryBlack after revive = %d, want 3", got)
	}

	w = postJSON(h.Dead, DeadRequest{SessionID: state.SessionID, Vertex: "A1"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "EMPTY_POINT" {
		t.Errorf("dead on empty point: status %d, want 400 EMPTY_POINT", w.Code)
	}
	w = postJSON(h.Dead, DeadRequest{SessionID: state.SessionID, Vertex: "pass"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "INVALID_VERTEX" {
		t.Errorf("dead on pass: status %d, want 400 INVALID_VERTEX", w.Code)
	}
}

func TestSGFExportImport(t *testing.T) {
	h := NewHandlers(nil, "test")
	state := newGame(t, h, NewGameRequest{Width: 5, Height: 5, Black: "Alice", White: "Bob"})
	playMoves(t, h, state.SessionID, "C3")

	w := postJSON(h.SGF, SessionRequest{SessionID: state.SessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("SGF status = %d, body %s", w.Code, w.Body.String())
	}
	sgf := decode[SGFResponse](t, w)
	for _, part := range []string{"SZ[5]", "PB[Alice]", "PW[Bob]", "B[cc]"} {
		if !strings.Contains(sgf.SGF, part) {
			t.Errorf("SGF %q missing %q", sgf.SGF, part)
		}
	}

	// The exported text loads into a fresh session.
	w = postJSON(h.Load, LoadRequest{SGF: sgf.SGF})
	if w.Code != http.StatusOK {
		t.Fatalf("Load status = %d, body %s", w.Code, w.Body.String())
	}
	loaded := decode[SessionResponse](t, w)
	if loaded.SessionID == state.SessionID {
		t.Error("Load reused the source session id")
	}
	if loaded.MoveIndex != 1 {
		t.Errorf("MoveIndex = %d, want 1", loaded.MoveIndex)
	}
	if loaded.ToMove != "white" {
		t.Errorf("ToMove = %q, want white", loaded.ToMove)
	}

	w = postJSON(h.Load, LoadRequest{})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "MISSING_SGF" {
		t.Errorf("empty load: status %d, want 400 MISSING_SGF", w.Code)
	}
	w = postJSON(h.Load, LoadRequest{SGF: "this is not sgf"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "INVALID_SGF" {
		t.Errorf("garbage load: status %d, want 400 INVALID_SGF", w.Code)
	}
}

// finishedCaptureGame plays the 1x2 miniature to the end: White captures
// the lone black stone and wins by the remaining territory plus komi.
func finishedCaptureGame(t *testing.T, h *Handlers) SessionResponse {
	t.Helper()
	state := newGame(t, h, NewGameRequest{Width: 1, Height: 2})
	playMoves(t, h, state.SessionID, "A1", "A2")
	postJSON(h.Pass, SessionRequest{SessionID: state.SessionID})
	w := postJSON(h.Pass, SessionRequest{SessionID: state.SessionID})
	final := decode[MoveResponse](t, w)
	if !final.Ended {
		t.Fatal("fixture game did not end")
	}
	return final.SessionResponse
}

func TestArchiveHandlers(t *testing.T) {
	store, err := storage.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	h := NewHandlers(store, "test")
	state := finishedCaptureGame(t, h)

	w := postJSON(h.SaveGame, SessionRequest{SessionID: state.SessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("SaveGame status = %d, body %s", w.Code, w.Body.String())
	}
	ag := decode[storage.ArchivedGame](t, w)
	if ag.ID == "" {
		t.Fatal("archived game has no id")
	}
	if ag.Result != "W+7.5" {
		t.Errorf("Result = %q, want W+7.5", ag.Result)
	}
	if ag.Moves != 4 {
		t.Errorf("Moves = %d, want 4", ag.Moves)
	}
	if ag.PrisonersWhite != 1 {
		t.Errorf("PrisonersWhite = %d, want 1", ag.PrisonersWhite)
	}

	req := httptest.NewRequest("GET", "/api/games", nil)
	w2 := httptest.NewRecorder()
	h.ListGames(w2, req)
	games := decode[GamesResponse](t, w2)
	if games.Count != 1 || len(games.Games) != 1 {
		t.Fatalf("ListGames count = %d, want 1", games.Count)
	}
	if games.Games[0].ID != ag.ID {
		t.Errorf("listed id = %q, want %q", games.Games[0].ID, ag.ID)
	}

	req = httptest.NewRequest("GET", "/api/stats", nil)
	w2 = httptest.NewRecorder()
	h.Stats(w2, req)
	stats := decode[storage.ArchiveStats](t, w2)
	if stats.Games != 1 || stats.WhiteWins != 1 {
		t.Errorf("stats = %d games / %d white wins, want 1/1", stats.Games, stats.WhiteWins)
	}
	if stats.MeanMoves != 4 {
		t.Errorf("MeanMoves = %g, want 4", stats.MeanMoves)
	}

	// Unknown session still 404s through the archive path.
	w = postJSON(h.SaveGame, SessionRequest{SessionID: "nope"})
	if w.Code != http.StatusNotFound {
		t.Errorf("SaveGame unknown session status = %d, want 404", w.Code)
	}
}

func TestArchiveUnavailable(t *testing.T) {
	h := NewHandlers(nil, "test")

	w := postJSON(h.SaveGame, SessionRequest{SessionID: "whatever"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if code := errorCode(t, w); code != "ARCHIVE_UNAVAILABLE" {
		t.Errorf("Code = %q, want ARCHIVE_UNAVAILABLE", code)
	}
}

func TestGetAndDeleteGameHandlers(t *testing.T) {
	store, err := storage.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	h := NewHandlers(store, "test")
	state := finishedCaptureGame(t, h)
	w := postJSON(h.SaveGame, SessionRequest{SessionID: state.SessionID})
	ag := decode[storage.ArchivedGame](t, w)

	get := func(id string) *httptest.ResponseRecorder {
		req := withRouteParam(httptest.NewRequest("GET", "/api/games/"+id, nil), "id", id)
		w := httptest.NewRecorder()
		h.GetGame(w, req)
		return w
	}

	w2 := get(ag.ID)
	if w2.Code != http.StatusOK {
		t.Fatalf("GetGame status = %d", w2.Code)
	}
	if got := decode[storage.ArchivedGame](t, w2); got.SGF != ag.SGF {
		t.Error("fetched game SGF differs from the saved one")
	}

	if w2 := get("bogus"); w2.Code != http.StatusNotFound {
		t.Errorf("GetGame bogus status = %d, want 404", w2.Code)
	}

	req := withRouteParam(httptest.NewRequest("DELETE", "/api/games/"+ag.ID, nil), "id", ag.ID)
	w2 = httptest.NewRecorder()
	h.DeleteGame(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("DeleteGame status = %d", w2.Code)
	}

	if w2 := get(ag.ID); w2.Code != http.StatusNotFound {
		t.Errorf("GetGame after delete status = %d, want 404", w2.Code)
	}
}

func TestSessionHandlers(t *testing.T) {
	h := NewHandlers(nil, "test")
	state := newGame(t, h, NewGameRequest{Width: 5, Height: 5})

	get := func(id string) *httptest.ResponseRecorder {
		req := withRouteParam(httptest.NewRequest("GET", "/api/session/"+id, nil), "id", id)
		w := httptest.NewRecorder()
		h.GetSession(w, req)
		return w
	}

	w := get(state.SessionID)
	if w.Code != http.StatusOK {
		t.Fatalf("GetSession status = %d", w.Code)
	}
	if got := decode[SessionResponse](t, w); got.SessionID != state.SessionID {
		t.Errorf("SessionID = %q, want %q", got.SessionID, state.SessionID)
	}

	req := withRouteParam(httptest.NewRequest("DELETE", "/api/session/"+state.SessionID, nil), "id", state.SessionID)
	w = httptest.NewRecorder()
	h.DeleteSession(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("DeleteSession status = %d", w.Code)
	}

	if w := get(state.SessionID); w.Code != http.StatusNotFound {
		t.Errorf("GetSession after delete status = %d, want 404", w.Code)
	}
	req = withRouteParam(httptest.NewRequest("DELETE", "/api/session/"+state.SessionID, nil), "id", state.SessionID)
	w = httptest.NewRecorder()
	h.DeleteSession(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second DeleteSession status = %d, want 404", w.Code)
	}
}

func TestReplaySSE(t *testing.T) {
	store, err := storage.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	h := NewHandlers(store, "test")
	state := finishedCaptureGame(t, h)
	w := postJSON(h.SaveGame, SessionRequest{SessionID: state.SessionID})
	ag := decode[storage.ArchivedGame](t, w)

	req := withRouteParam(httptest.NewRequest("GET", "/api/games/"+ag.ID+"/replay", nil), "id", ag.ID)
	rec := httptest.NewRecorder()
	h.Replay(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Replay status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: game\n") {
		t.Error("stream missing the game header event")
	}
	// Starting position plus four moves.
	if n := strings.Count(body, "event: position\n"); n != 5 {
		t.Errorf("stream has %d position events, want 5:\n%s", n, body)
	}
	if !strings.Contains(body, "event: done\n") {
		t.Error("stream missing the done event")
	}
	if !strings.Contains(body, `"result":"W+7.5"`) {
		t.Error("done event missing the result")
	}

	req = withRouteParam(httptest.NewRequest("GET", "/api/games/bogus/replay", nil), "id", "bogus")
	rec = httptest.NewRecorder()
	h.Replay(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Replay bogus status = %d, want 404", rec.Code)
	}
}

func TestServerRouter(t *testing.T) {
	store, err := storage.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	srv := NewServer(store, DefaultConfig(), "test")
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", origin)
	}

	resp, err = http.Post(ts.URL+"/api/new", "application/json", strings.NewReader(`{"width":5}`))
	if err != nil {
		t.Fatalf("POST /api/new: %v", err)
	}
	var state SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	resp.Body.Close()
	if state.Width != 5 || state.Height != 5 {
		t.Errorf("size = %dx%d, want 5x5", state.Width, state.Height)
	}

	resp, err = http.Get(ts.URL + "/api/session/" + state.SessionID)
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("session status = %d, want 200", resp.StatusCode)
	}

	// Preflight requests short-circuit with the CORS headers.
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/new", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", resp.StatusCode)
	}
	if methods := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(methods, "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST included", methods)
	}
}

// ============================================================================
// WebSocket Tests
// ============================================================================

// wsFrame mirrors WSResponse with a raw payload so tests can decode the
// payload into the right type per message.
type wsFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}

func dialWS(t *testing.T, h *Handlers) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) wsFrame {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame wsFrame
	if err := ws.ReadJSON(&frame); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return frame
}

func writeMessage(t *testing.T, ws *websocket.Conn, msgType, id string, payload interface{}) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	if err := ws.WriteJSON(WSMessage{Type: msgType, ID: id, Payload: raw}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	h := NewHandlers(nil, "test")

	server := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	defer ws.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
}

func TestWebSocketPing(t *testing.T) {
	h := NewHandlers(nil, "test")
	ws := dialWS(t, h)

	writeMessage(t, ws, "ping", "test-ping-1", nil)

	frame := readFrame(t, ws)
	if frame.Type != "pong" {
		t.Errorf("Response type = %q, want %q", frame.Type, "pong")
	}
	if frame.ID != "test-ping-1" {
		t.Errorf("Response ID = %q, want %q", frame.ID, "test-ping-1")
	}
}

func TestWebSocketPlay(t *testing.T) {
	h := NewHandlers(nil, "test")
	ws := dialWS(t, h)

	writeMessage(t, ws, "new", "new-1", NewGameRequest{Width: 5, Height: 5})
	frame := readFrame(t, ws)
	if frame.Type != "result" || frame.ID != "new-1" {
		t.Fatalf("frame = %s/%s, want result/new-1 (error %q)", frame.Type, frame.ID, frame.Error)
	}
	var state SessionResponse
	if err := json.Unmarshal(frame.Payload, &state); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if state.SessionID == "" {
		t.Fatal("new session has no id")
	}

	writeMessage(t, ws, "move", "move-1", MoveRequest{SessionID: state.SessionID, Move: "C3"})
	frame = readFrame(t, ws)
	if frame.Type != "result" || frame.ID != "move-1" {
		t.Fatalf("frame = %s/%s, want result/move-1 (error %q)", frame.Type, frame.ID, frame.Error)
	}
	var move MoveResponse
	if err := json.Unmarshal(frame.Payload, &move); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if !move.Legal || move.MoveIndex != 1 {
		t.Errorf("move = legal %t index %d, want legal at index 1", move.Legal, move.MoveIndex)
	}

	writeMessage(t, ws, "legal", "legal-1", LegalRequest{SessionID: state.SessionID})
	frame = readFrame(t, ws)
	if frame.Type != "result" {
		t.Fatalf("frame type = %q, want result (error %q)", frame.Type, frame.Error)
	}
	var legal LegalResponse
	if err := json.Unmarshal(frame.Payload, &legal); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if legal.ToMove != "white" {
		t.Errorf("ToMove = %q, want white", legal.ToMove)
	}
	if legal.Count != 24 {
		t.Errorf("Count = %d, want 24 empty points", legal.Count)
	}

	writeMessage(t, ws, "state", "state-1", SessionRequest{SessionID: state.SessionID})
	frame = readFrame(t, ws)
	if frame.Type != "result" || frame.ID != "state-1" {
		t.Fatalf("frame = %s/%s, want result/state-1", frame.Type, frame.ID)
	}
}

func TestWebSocketErrors(t *testing.T) {
	h := NewHandlers(nil, "test")
	ws := dialWS(t, h)

	tests := []struct {
		name    string
		msgType string
		payload interface{}
		wantErr string
	}{
		{"unknown type", "unknown", nil, "unknown message type"},
		{"missing payload", "move", nil, "missing payload"},
		{"unknown session", "move", MoveRequest{SessionID: "nope", Move: "C3"}, "no session"},
		{"bad game", "new", NewGameRequest{Width: 40}, "unsupported board size"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			writeMessage(t, ws, tc.msgType, tc.name, tc.payload)
			frame := readFrame(t, ws)
			if frame.Type != "error" {
				t.Errorf("Response type = %q, want %q", frame.Type, "error")
			}
			if !strings.Contains(frame.Error, tc.wantErr) {
				t.Errorf("Error = %q, want containing %q", frame.Error, tc.wantErr)
			}
		})
	}
}

func TestWebSocketWatch(t *testing.T) {
	h := NewHandlers(nil, "test")
	state, aerr := h.startSession(NewGameRequest{Width: 3, Height: 3})
	if aerr != nil {
		t.Fatalf("startSession: %v", aerr)
	}

	ws := dialWS(t, h)
	writeMessage(t, ws, "watch", "watch-1", SessionRequest{SessionID: state.SessionID})
	frame := readFrame(t, ws)
	if frame.Type != "result" || frame.ID != "watch-1" {
		t.Fatalf("frame = %s/%s, want result/watch-1 (error %q)", frame.Type, frame.ID, frame.Error)
	}

	// A REST move on the watched session pushes a state frame.
	w := postJSON(h.Move, MoveRequest{SessionID: state.SessionID, Move: "B2"})
	if w.Code != http.StatusOK {
		t.Fatalf("Move status = %d", w.Code)
	}
	frame = readFrame(t, ws)
	if frame.Type != "state" {
		t.Fatalf("pushed frame type = %q, want state", frame.Type)
	}
	var pushed SessionResponse
	if err := json.Unmarshal(frame.Payload, &pushed); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if pushed.MoveIndex != 1 {
		t.Errorf("pushed MoveIndex = %d, want 1", pushed.MoveIndex)
	}

	// After unwatch the next frame is the ping reply, not a state push.
	writeMessage(t, ws, "unwatch", "unwatch-1", SessionRequest{SessionID: state.SessionID})
	if frame = readFrame(t, ws); frame.Type != "result" {
		t.Fatalf("unwatch frame type = %q, want result", frame.Type)
	}
	w = postJSON(h.Move, MoveRequest{SessionID: state.SessionID, Move: "A1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Move status = %d", w.Code)
	}
	writeMessage(t, ws, "ping", "ping-after", nil)
	if frame = readFrame(t, ws); frame.Type != "pong" {
		t.Errorf("frame after unwatch = %q, want pong", frame.Type)
	}
}

func TestWebSocketSessionClosed(t *testing.T) {
	h := NewHandlers(nil, "test")
	state, aerr := h.startSession(NewGameRequest{Width: 3, Height: 3})
	if aerr != nil {
		t.Fatalf("startSession: %v", aerr)
	}

	ws := dialWS(t, h)
	writeMessage(t, ws, "watch", "watch-1", SessionRequest{SessionID: state.SessionID})
	if frame := readFrame(t, ws); frame.Type != "result" {
		t.Fatalf("watch frame type = %q, want result", frame.Type)
	}

	req := withRouteParam(httptest.NewRequest("DELETE", "/api/session/"+state.SessionID, nil), "id", state.SessionID)
	w := httptest.NewRecorder()
	h.DeleteSession(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("DeleteSession status = %d", w.Code)
	}

	if frame := readFrame(t, ws); frame.Type != "closed" {
		t.Errorf("frame after delete = %q, want closed", frame.Type)
	}
}
