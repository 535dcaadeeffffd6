// Package api is the HTTP facade over stored flights, scores and the
// score-on-demand pipeline.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/bmacd/skyscore/internal/batch"
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/storage/sqlite"
	"github.com/bmacd/skyscore/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(runner *batch.Runner, flights *sqlite.FlightStorage, refs *sqlite.ReferenceStorage, scores *sqlite.ScoreStorage, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(runner, flights, refs, scores, cfg, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Flight routes
		router.Get("/flights", r.handler.ListFlights)
		router.Get("/flights/{gufi}/track", r.handler.GetFlightTrack)
		router.Post("/flights/{gufi}/score", r.handler.ScoreFlight)

		// Score routes
		router.Get("/scores", r.handler.ListScores)
		router.Get("/scores/summary", r.handler.GetScoreSummary)
		router.Get("/scores/{gufi}", r.handler.GetScore)
		router.Get("/attempts/{gufi}", r.handler.GetAttempt)

		// Benchmarks
		router.Get("/benchmarks/{dimension}", r.handler.GetBenchmarks)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
		router.Get("/station", r.handler.GetStation)
	})

	return router
}
