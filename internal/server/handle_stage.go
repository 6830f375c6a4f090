package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jconnolly84/quizmas/internal/quiz"
)

type RevealRequest struct {
	Reveal bool `json:"reveal"`
}

// ActRequest starts a timed mini-game: Prompt is the person to act out in
// charades or the song to hum.
type ActRequest struct {
	Team    string `json:"team"`
	Prompt  string `json:"prompt"`
	Seconds int    `json:"seconds"`
}

func handleSetLiveQuestion(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var live json.RawMessage
		if err := readJSON(r, &live); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := rooms.SetLiveQuestion(r.Context(), roomID(r), live); err != nil {
			writeRoomError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSetReveal(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RevealRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := rooms.SetReveal(r.Context(), roomID(r), req.Reveal); err != nil {
			writeRoomError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleClearStage(rooms *quiz.Service) http.HandlerFunc {
	return roomAction(rooms.ClearStage)
}

// actOps binds the act endpoints to charades or hum.
type actOps struct {
	start     func(ctx context.Context, roomID, team, prompt string, seconds int) error
	stop      func(ctx context.Context, roomID string) error
	reveal    func(ctx context.Context, roomID string) error
	resetPool func(ctx context.Context, roomID string) error
}

func charadesOps(rooms *quiz.Service) actOps {
	return actOps{rooms.StartCharades, rooms.StopCharades, rooms.RevealCharades, rooms.ResetCharadesPool}
}

func humOps(rooms *quiz.Service) actOps {
	return actOps{rooms.StartHum, rooms.StopHum, rooms.RevealHum, rooms.ResetHumPool}
}

func actRoutes(ops actOps) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", handleStartAct(ops.start))
		r.Post("/stop", roomAction(ops.stop))
		r.Post("/reveal", roomAction(ops.reveal))
		r.Delete("/used", roomAction(ops.resetPool))
	}
}

func handleStartAct(start func(ctx context.Context, roomID, team, prompt string, seconds int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ActRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Team = strings.TrimSpace(req.Team)
		req.Prompt = strings.TrimSpace(req.Prompt)
		if req.Team == "" || req.Prompt == "" {
			writeError(w, http.StatusBadRequest, "team and prompt are required")
			return
		}

		if err := start(r.Context(), roomID(r), req.Team, req.Prompt, req.Seconds); err != nil {
			writeRoomError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// roomAction adapts a body-less room operation.
func roomAction(op func(ctx context.Context, roomID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(r.Context(), roomID(r)); err != nil {
			writeRoomError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
