package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jconnolly84/quizmas/internal/quiz"
)

// RoomResponse is a room document together with its id.
type RoomResponse struct {
	ID string `json:"id"`
	*quiz.Room
}

type QuestionBankResponse struct {
	Stored bool `json:"stored"`
}

// newRoomID returns a short code hosts can read out loud.
func newRoomID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

func handleCreateRoom(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := newRoomID()
		room, err := rooms.EnsureRoom(r.Context(), id)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, RoomResponse{ID: id, Room: room})
	}
}

func handleEnsureRoom(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := roomID(r)
		room, err := rooms.EnsureRoom(r.Context(), id)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RoomResponse{ID: id, Room: room})
	}
}

func handleGetRoom(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := roomID(r)
		room, err := rooms.Room(r.Context(), id)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RoomResponse{ID: id, Room: room})
	}
}

func handleSetQuestionBank(rooms *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bank json.RawMessage
		if err := readJSON(r, &bank); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		overwrite := r.URL.Query().Get("overwrite") == "true"

		stored, err := rooms.SetQuestionBank(r.Context(), roomID(r), bank, overwrite)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, QuestionBankResponse{Stored: stored})
	}
}
