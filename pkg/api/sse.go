package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yourusername/goengine/internal/positionid"
	"github.com/yourusername/goengine/internal/storage"
	"github.com/yourusername/goengine/pkg/engine"
	"github.com/yourusername/goengine/pkg/game"
)

// Replay streams an archived game over Server-Sent Events.
// GET /api/games/{id}/replay?delay_ms=...
//
// The stream opens with a "game" event describing the record, emits one
// "position" event per board state (the starting position, then one per
// move) and closes with a "done" event. delay_ms inserts a pause between
// positions so a browser can animate the playback.
func (h *Handlers) Replay(w http.ResponseWriter, r *http.Request) {
	store := h.archive(w)
	if store == nil {
		return
	}
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	ag, err := store.LoadGame(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found", "GAME_NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ARCHIVE_ERROR")
		return
	}
	rec, err := ag.Record()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "archived SGF does not parse: "+err.Error(), "ARCHIVE_ERROR")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "STREAM_UNSUPPORTED")
		return
	}

	delay := time.Duration(parseIntParam(r.URL.Query().Get("delay_ms"), 0)) * time.Millisecond
	ctx := r.Context()

	writeSSEEvent(w, "game", ReplayInfo{
		ID:     ag.ID,
		Black:  ag.BlackPlayer,
		White:  ag.WhitePlayer,
		Result: ag.Result,
		Moves:  ag.Moves,
	})
	flusher.Flush()

	_, err = rec.ReplayEach(func(moveIndex int, m *game.Move, g *engine.Game) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b := g.Board()
		black, white := g.Captures(engine.Black), g.Captures(engine.White)
		step := ReplayStep{
			Move:          moveIndex,
			PositionID:    positionid.PositionID(b),
			Board:         b.String(),
			CapturesBlack: black,
			CapturesWhite: white,
		}
		if m != nil {
			step.Color = m.Color.String()
			step.At = m.At.Vertex()
		}
		writeSSEEvent(w, "position", step)
		flusher.Flush()

		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		return nil
	})
	if err != nil {
		// Client disconnects end the stream silently.
		if ctx.Err() == nil {
			writeSSEError(w, err.Error())
		}
		return
	}

	writeSSEEvent(w, "done", ReplayDone{Result: ag.Result, Moves: ag.Moves})
	flusher.Flush()
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err == nil {
			fmt.Fprintf(w, "data: %s\n", jsonData)
		}
	}
	fmt.Fprintf(w, "\n")
}

// writeSSEError writes an error event and flushes.
func writeSSEError(w http.ResponseWriter, message string) {
	writeSSEEvent(w, "error", map[string]string{"error": message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	var val int
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil {
		return defaultVal
	}
	return val
}
