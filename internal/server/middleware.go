package server

import (
	"context"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeyRoom ctxKey = iota

var roomIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// roomMiddleware validates the {roomID} path segment and stores it in the
// request context.
func roomMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "roomID")
		if !roomIDRE.MatchString(id) {
			writeError(w, http.StatusBadRequest, "invalid room id")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyRoom, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func roomID(r *http.Request) string {
	return r.Context().Value(ctxKeyRoom).(string)
}
