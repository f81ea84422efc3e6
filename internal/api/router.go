package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/gameshelf/internal/aggregate"
	"github.com/mcoot/gameshelf/internal/api/handler"
	"github.com/mcoot/gameshelf/internal/api/middleware"
	"github.com/mcoot/gameshelf/internal/api/response"
	"github.com/mcoot/gameshelf/internal/repository"
	"github.com/mcoot/gameshelf/internal/services/consistency"
	"github.com/mcoot/gameshelf/internal/services/library"
	"github.com/mcoot/gameshelf/internal/services/review"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	Repos       *repository.Repositories
	Engine      *aggregate.Engine
	Library     *library.Service
	Reviews     *review.Service
	Consistency *consistency.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	catalogHandler := handler.NewCatalogHandler(cfg.Repos, cfg.Library, cfg.Reviews)
	adminHandler := handler.NewAdminHandler(cfg.Repos, cfg.Engine, cfg.Consistency, cfg.Logger)

	// Metrics endpoint sits outside the API middleware so scrapes are not logged
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{
		Registry: cfg.Registry,
	})).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Metrics(middleware.NewHTTPMetrics(cfg.Registry)))

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Catalog views
	api.HandleFunc("/games/{id}", catalogHandler.GetGame).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/reviews", catalogHandler.GameReviews).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/stats", catalogHandler.UserStats).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/library", catalogHandler.UserLibrary).Methods(http.MethodGet)

	// Aggregate maintenance
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/recompute", adminHandler.RecomputeAll).Methods(http.MethodPost)
	admin.HandleFunc("/recompute/games/{id}", adminHandler.RecomputeGame).Methods(http.MethodPost)
	admin.HandleFunc("/recompute/users/{id}", adminHandler.RecomputeUser).Methods(http.MethodPost)
	admin.HandleFunc("/verify", adminHandler.Verify).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
