package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jconnolly84/quizmas/internal/database"
	"github.com/jconnolly84/quizmas/internal/docstore"
	"github.com/jconnolly84/quizmas/internal/migrations"
	"github.com/jconnolly84/quizmas/internal/quiz"
)

func setupRooms(t *testing.T) *quiz.Service {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "rooms.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	store := docstore.NewSQLiteStore(db, docstore.WithRetries(64))
	return quiz.NewService(store, slog.Default())
}

func roomRouter(t *testing.T) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	addRoutes(r, slog.Default(), setupRooms(t), nil, "")
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func getRoom(t *testing.T, h http.Handler, id string) RoomResponse {
	t.Helper()
	w := do(t, h, http.MethodGet, "/api/rooms/"+id, nil)
	expectStatus(t, w, http.StatusOK)

	var resp RoomResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	return resp
}
