package server

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	broker := deps.Broker
	if broker == nil {
		broker = NewBroker()
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Golden Gate Quest API", "/openapi.json", "/docs"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/categories", handleCategories(deps.Catalog))
	r.Post("/api/quests/curate", handleCurate(deps.Curator, deps.Catalog))

	r.Post("/api/sessions", handleCreateSession(deps.Sessions))
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Use(sessionMiddleware(deps.Sessions))
		r.Get("/", handleGetSession())
		r.Get("/events", handleEvents(broker))
		r.Post("/splash", handleSeeSplash())
		r.Patch("/preferences", handleUpdatePreferences())
		r.Post("/onboarding/next", handleNextStep())
		r.Post("/onboarding/back", handlePrevStep())
		r.Post("/categories/{category}/toggle", handleToggleCategory())
		r.Post("/quest", handleGenerateQuest(deps.Curator, deps.Catalog))
		r.Delete("/quest", handleResetQuest())
		r.Post("/quest/locations/{index}/complete", handleCompleteLocation(now))
		r.Post("/quest/locations/{index}/age-photo", handleAgePhoto(deps.PhotoAger))
		r.Post("/quest/food-stop/visit", handleVisitFoodStop())
		r.Get("/achievement", handleAchievement(now))
	})

	r.Route("/api/admin/catalog", func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.AdminPasswordHash))
		r.Put("/locations", handleAdminPutLocations(deps.Importer))
		r.Put("/food-stops", handleAdminPutFoodStops(deps.Importer))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
