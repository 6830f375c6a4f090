package server

import (
	"net/http"
	"strings"

	"github.com/jconnolly84/quizmas/internal/quiz"
)

type TeamRequest struct {
	Team string `json:"team"`
}

type ScoreRequest struct {
	Team  string `json:"team"`
	Delta int    `json:"delta"`
}

type ScoreResponse struct {
	Team  string `json:"team"`
	Score int    `json:"score"`
}

func readTeam(r *http.Request) (string, bool) {
	var req TeamRequest
	if err := readJSON(r, &req); err != nil {
		return "", false
	}
	req.Team = strings.TrimSpace(req.Team)
	return req.Team, req.Team != ""
}

// handleBuzz always answers 200 for an existing room; a losing buzz is
// reported through won=false, not as an error.
func handleBuzz(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, ok := readTeam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "team is required")
			return
		}

		res, err := rooms.Buzz(r.Context(), roomID(r), team)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleResetBuzz(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rooms.ResetBuzz(r.Context(), roomID(r)); err != nil {
			writeRoomError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRegisterTeam(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, ok := readTeam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "team is required")
			return
		}

		if err := rooms.RegisterTeam(r.Context(), roomID(r), team); err != nil {
			writeRoomError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleChangeScore(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Team = strings.TrimSpace(req.Team)
		if req.Team == "" {
			writeError(w, http.StatusBadRequest, "team is required")
			return
		}

		score, err := rooms.ChangeScore(r.Context(), roomID(r), req.Team, req.Delta)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ScoreResponse{Team: req.Team, Score: score})
	}
}
