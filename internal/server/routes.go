package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/jconnolly84/quizmas/internal/quiz"
)

func addRoutes(r chi.Router, logger *slog.Logger, rooms *quiz.Service, health http.Handler, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Quizmas API", "/openapi.json", "/docs"))
	if health != nil {
		r.Mount("/healthz", health)
	}

	r.Post("/api/rooms", handleCreateRoom(rooms))

	r.Route("/api/rooms/{roomID}", func(r chi.Router) {
		r.Use(roomMiddleware)

		// Lifecycle.
		r.Put("/", handleEnsureRoom(rooms))
		r.Get("/", handleGetRoom(rooms))
		r.Put("/bank", handleSetQuestionBank(rooms))

		// Buzzer and score ledger.
		r.Post("/buzz", handleBuzz(rooms))
		r.Delete("/buzz", handleResetBuzz(rooms))
		r.Post("/teams", handleRegisterTeam(rooms))
		r.Post("/scores", handleChangeScore(rooms))

		// Stage, host only by convention.
		r.Put("/live", handleSetLiveQuestion(rooms))
		r.Put("/reveal", handleSetReveal(rooms))
		r.Delete("/stage", handleClearStage(rooms))
		r.Route("/charades", actRoutes(charadesOps(rooms)))
		r.Route("/hum", actRoutes(humOps(rooms)))

		// Live state.
		r.Get("/events", handleEvents(rooms))
		r.Get("/ws", handleSocket(logger, rooms))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
