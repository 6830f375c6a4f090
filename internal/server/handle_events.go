package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jconnolly84/quizmas/internal/quiz"
)

const pingInterval = 30 * time.Second

// handleEvents streams the room as Server-Sent Events. The first event is
// the current state; every later event is a full, newer room document. A
// room that does not exist, or was swept, is sent as null.
func handleEvents(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ctx := r.Context()
		ch := make(chan *quiz.Room)
		stop, err := rooms.ListenRoom(ctx, roomID(r), func(room *quiz.Room) {
			select {
			case ch <- room:
			case <-ctx.Done():
			}
		})
		if err != nil {
			writeRoomError(w, err)
			return
		}
		defer stop()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case room := <-ch:
				data, err := json.Marshal(room)
				if err != nil {
					return
				}
				fmt.Fprintf(w, "event: room\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
