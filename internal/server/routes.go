package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, db *sql.DB, spaDir string) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("TourQuest API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Player routes — Bearer session token from /api/join.
	r.Post("/api/join", handleJoin(store))
	r.Route("/api/tours/{activeTourID}", func(r chi.Router) {
		r.Get("/", handleTourState(store))
		r.Get("/events", handleEvents(store, broker))
		r.Get("/bingo", handleBingoCard(store))
		r.Post("/challenges/{challengeID}/complete", handleCompleteChallenge(logger, store, broker))
		r.Post("/challenges/{challengeID}/fail", handleFailChallenge(logger, store, broker))
		r.Post("/finish", handleFinishTour(store, broker))
		r.Post("/abandon", handleAbandonTour(store))
		r.Post("/stop", handleUpdateStop(store, broker))
		r.Post("/pubgolf", handlePubGolfScore(store))
	})

	// Admin routes — cookie session from login.
	r.Post("/api/admin/login", handleAdminLogin(store))
	r.Post("/api/admin/logout", handleAdminLogout(store))
	r.Get("/api/admin/me", handleAdminMe(store))
	r.Get("/api/admin/tours", handleAdminListTours(store))
	r.Post("/api/admin/tours", handleAdminCreateTour(store))
	r.Post("/api/admin/active-tours", handleAdminCreateActiveTour(store))

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
