package server

import (
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jconnolly84/quizmas/internal/quiz"
)

// handleSocket pushes the same room stream as handleEvents over a
// WebSocket. Inbound messages are ignored; mutations go through the REST
// endpoints.
func handleSocket(logger *slog.Logger, rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := roomID(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "room", id, "error", err)
			return
		}
		defer conn.CloseNow()

		// CloseRead handles control frames and cancels ctx once the peer
		// goes away.
		ctx := conn.CloseRead(r.Context())

		ch := make(chan *quiz.Room)
		stop, err := rooms.ListenRoom(ctx, id, func(room *quiz.Room) {
			select {
			case ch <- room:
			case <-ctx.Done():
			}
		})
		if err != nil {
			logger.Error("listening to room failed", "room", id, "error", err)
			conn.Close(websocket.StatusInternalError, "listen failed")
			return
		}
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case room := <-ch:
				if err := wsjson.Write(ctx, conn, room); err != nil {
					logger.Debug("websocket write failed", "room", id, "error", err)
					return
				}
			}
		}
	}
}
