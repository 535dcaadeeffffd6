package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/bmacd/skyscore/internal/aircraft"
	"github.com/bmacd/skyscore/internal/batch"
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/storage/sqlite"
	"github.com/bmacd/skyscore/internal/weather"
	"github.com/bmacd/skyscore/pkg/logger"
)

// Handler serves the HTTP API
type Handler struct {
	runner  *batch.Runner
	flights *sqlite.FlightStorage
	refs    *sqlite.ReferenceStorage
	scores  *sqlite.ScoreStorage
	config  *config.Config
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(runner *batch.Runner, flights *sqlite.FlightStorage, refs *sqlite.ReferenceStorage, scores *sqlite.ScoreStorage, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		runner:  runner,
		flights: flights,
		refs:    refs,
		scores:  scores,
		config:  cfg,
		logger:  log.Named("api-handler"),
	}
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// respondError writes a JSON error response
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// GetHealth returns service liveness
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetConfig returns the active scoring configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"station":       h.config.Station,
		"preprocessing": h.config.Preprocessing,
		"projection":    h.config.Projection,
		"scoring":       h.config.Scoring,
	})
}

// GetStation returns the watched airport
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.config.Station)
}

// ListFlights returns flight summaries, optionally filtered by UTC date
func (h *Handler) ListFlights(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			h.respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	limit := queryInt(r, "limit", 100)

	flights, err := h.flights.ListFlights(date, limit)
	if err != nil {
		h.logger.Error("Failed to list flights", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to list flights")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(flights),
		"flights": flights,
	})
}

// GetFlightTrack returns the full raw trajectory of one flight
func (h *Handler) GetFlightTrack(w http.ResponseWriter, r *http.Request) {
	gufi := chi.URLParam(r, "gufi")

	flight, err := h.flights.GetFlight(gufi)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "flight not found")
			return
		}
		h.logger.Error("Failed to load flight", logger.String("gufi", gufi), logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load flight")
		return
	}
	h.respondJSON(w, http.StatusOK, flight)
}

// scoreContext is the reference data surrounding a score-on-demand run
type scoreContext struct {
	Runways  []runway.Runway       `json:"runways,omitempty"`
	METAR    *weather.Observation  `json:"metar,omitempty"`
	Aircraft *aircraft.Performance `json:"aircraft,omitempty"`
}

// ScoreFlight runs the pipeline for one flight on demand. Persistence is
// opt-in via ?persist=true; the default is a preview that writes nothing.
func (h *Handler) ScoreFlight(w http.ResponseWriter, r *http.Request) {
	gufi := chi.URLParam(r, "gufi")
	persist := r.URL.Query().Get("persist") == "true"

	outcome, err := h.runner.ScoreFlight(gufi, persist)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "flight not found")
			return
		}
		h.logger.Error("Failed to score flight", logger.String("gufi", gufi), logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to score flight")
		return
	}

	// Aggregate the reference data the score was graded against, so the
	// client can render the full picture without extra round trips.
	ctx := scoreContext{}
	if flight, err := h.flights.GetFlight(gufi); err == nil {
		airport := flight.Arrival
		if airport == "" {
			airport = h.config.Station.AirportICAO
		}
		if runways, err := h.refs.GetRunways(airport); err == nil {
			ctx.Runways = runways
		}
		if len(flight.Points) > 0 {
			if wx, err := h.refs.GetLatestObservation(airport, flight.Points[len(flight.Points)-1].Time); err == nil {
				ctx.METAR = wx
			}
		}
		if perf, err := h.refs.GetPerformance(flight.AircraftType); err == nil {
			ctx.Aircraft = perf
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"context": ctx,
	})
}

// ListScores returns stored approach scores
func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	filter := sqlite.ScoreFilter{
		Callsign: r.URL.Query().Get("callsign"),
		Airport:  r.URL.Query().Get("airport"),
		Grade:    r.URL.Query().Get("grade"),
		Limit:    queryInt(r, "limit", 100),
	}

	scores, err := h.scores.ListScores(filter)
	if err != nil {
		h.logger.Error("Failed to list scores", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to list scores")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(scores),
		"scores": scores,
	})
}

// GetScore returns the stored score for one flight
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	gufi := chi.URLParam(r, "gufi")

	score, err := h.scores.GetScore(gufi)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "score not found")
			return
		}
		h.logger.Error("Failed to load score", logger.String("gufi", gufi), logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load score")
		return
	}
	h.respondJSON(w, http.StatusOK, score)
}

// GetScoreSummary returns the grade distribution
func (h *Handler) GetScoreSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scores.Summary()
	if err != nil {
		h.logger.Error("Failed to load score summary", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"grades": summary})
}

// GetBenchmarks returns fleet averages along one dimension
func (h *Handler) GetBenchmarks(w http.ResponseWriter, r *http.Request) {
	dimension := chi.URLParam(r, "dimension")
	if dimension != "ac_type" && dimension != "airport" {
		h.respondError(w, http.StatusBadRequest, "dimension must be ac_type or airport")
		return
	}

	benchmarks, err := h.scores.GetBenchmarks(dimension)
	if err != nil {
		h.logger.Error("Failed to load benchmarks", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load benchmarks")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"dimension":  dimension,
		"benchmarks": benchmarks,
	})
}

// GetAttempt returns the scoring audit row for one flight
func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	gufi := chi.URLParam(r, "gufi")

	attempt, err := h.scores.GetAttempt(gufi)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "attempt not found")
			return
		}
		h.logger.Error("Failed to load attempt", logger.String("gufi", gufi), logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load attempt")
		return
	}
	h.respondJSON(w, http.StatusOK, attempt)
}

// queryInt parses an integer query parameter with a default
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
