package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jconnolly84/quizmas/internal/docstore"
	"github.com/jconnolly84/quizmas/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeRoomError maps room operation failures onto HTTP statuses.
func writeRoomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrRoomMissing):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, docstore.ErrConflict):
		writeError(w, http.StatusConflict, "room is busy, try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
