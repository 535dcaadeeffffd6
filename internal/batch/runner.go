// Package batch drives the scoring pipeline over stored flights: list
// candidates, preprocess each trajectory, project and grade every leg,
// and persist results with a full audit trail of skips and failures.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmacd/skyscore/internal/aircraft"
	"github.com/bmacd/skyscore/internal/approach"
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/preprocess"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/scoring"
	"github.com/bmacd/skyscore/internal/storage/sqlite"
	"github.com/bmacd/skyscore/internal/track"
	"github.com/bmacd/skyscore/internal/weather"
	"github.com/bmacd/skyscore/pkg/logger"
)

// Runner wires storage and the scoring engine into a batch pipeline
type Runner struct {
	flights *sqlite.FlightStorage
	refs    *sqlite.ReferenceStorage
	scores  *sqlite.ScoreStorage
	cfg     *config.Config
	logger  *logger.Logger
}

// NewRunner creates a batch runner
func NewRunner(flights *sqlite.FlightStorage, refs *sqlite.ReferenceStorage, scores *sqlite.ScoreStorage, cfg *config.Config, log *logger.Logger) *Runner {
	return &Runner{
		flights: flights,
		refs:    refs,
		scores:  scores,
		cfg:     cfg,
		logger:  log.Named("batch"),
	}
}

// LegOutcome is the result of scoring one leg of a flight
type LegOutcome struct {
	LegID   string          `json:"leg_id"`
	Kind    track.LegKind   `json:"kind"`
	Runway  *runway.Runway  `json:"runway,omitempty"`
	Result  *scoring.Result `json:"result,omitempty"`
	Skipped string          `json:"skipped,omitempty"`
}

// FlightOutcome is the full result of one flight through the pipeline
type FlightOutcome struct {
	GUFI      string       `json:"gufi"`
	Callsign  string       `json:"callsign"`
	Discarded bool         `json:"discarded"`
	Reason    string       `json:"reason,omitempty"`
	Flags     []string     `json:"flags,omitempty"`
	Legs      []LegOutcome `json:"legs,omitempty"`
}

// Stats aggregates one batch run
type Stats struct {
	Candidates  int
	Scored      int
	Discarded   int
	Unscoreable int
	Errors      int
	Reasons     map[string]int
	Elapsed     time.Duration
}

// Run scores every candidate matching the filter using the configured
// worker count, then refreshes the fleet benchmarks.
func (r *Runner) Run(ctx context.Context, filter sqlite.CandidateFilter) (*Stats, error) {
	start := time.Now()

	candidates, err := r.flights.ListCandidates(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	stats := &Stats{Candidates: len(candidates), Reasons: make(map[string]int)}
	r.logger.Info("Starting batch scoring run",
		logger.Int("candidates", len(candidates)),
		logger.Int("workers", r.cfg.Batch.Workers))

	workers := r.cfg.Batch.Workers
	if workers < 1 {
		workers = 1
	}

	work := make(chan sqlite.Candidate)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				outcome, err := r.ScoreFlight(c.GUFI, true)
				mu.Lock()
				r.tally(stats, c, outcome, err)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case work <- c:
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.Warn("Batch run interrupted", Error(err))
	}

	if err := r.scores.UpdateBenchmarks(); err != nil {
		r.logger.Error("Failed to refresh benchmarks", Error(err))
	}

	stats.Elapsed = time.Since(start)
	r.logRunSummary(stats)
	return stats, nil
}

// tally folds one flight outcome into the run stats
func (r *Runner) tally(stats *Stats, c sqlite.Candidate, outcome *FlightOutcome, err error) {
	if err != nil {
		stats.Errors++
		stats.Reasons["error: "+err.Error()]++
		r.logger.Error("Failed to score flight", logger.String("gufi", c.GUFI), Error(err))
		return
	}
	if outcome.Discarded {
		stats.Discarded++
		stats.Reasons[outcome.Reason]++
		return
	}
	for _, leg := range outcome.Legs {
		if leg.Result != nil {
			stats.Scored++
			continue
		}
		stats.Unscoreable++
		stats.Reasons[leg.Skipped]++
	}
}

// logRunSummary emits the reason histogram and grade distribution
func (r *Runner) logRunSummary(stats *Stats) {
	r.logger.Info("Batch scoring run complete",
		logger.Int("candidates", stats.Candidates),
		logger.Int("scored", stats.Scored),
		logger.Int("discarded", stats.Discarded),
		logger.Int("unscoreable", stats.Unscoreable),
		logger.Int("errors", stats.Errors),
		logger.Duration("elapsed", stats.Elapsed))

	reasons := make([]string, 0, len(stats.Reasons))
	for reason := range stats.Reasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		r.logger.Info("Skip reason", logger.String("reason", reason), logger.Int("count", stats.Reasons[reason]))
	}

	if summary, err := r.scores.Summary(); err == nil {
		for _, gc := range summary {
			r.logger.Info("Grade distribution", logger.String("grade", gc.Grade), logger.Int("count", gc.Count))
		}
	}
}

// ScoreFlight runs one flight through the full pipeline. With persist
// set, results and the attempt audit row are written; the HTTP facade
// calls it without persistence for score-on-demand previews.
func (r *Runner) ScoreFlight(gufi string, persist bool) (*FlightOutcome, error) {
	flight, err := r.flights.GetFlight(gufi)
	if err != nil {
		return nil, err
	}

	outcome := &FlightOutcome{GUFI: gufi, Callsign: flight.Callsign}

	pre := preprocess.Preprocess(flight, r.cfg.Station.ElevationFt, r.cfg.Preprocessing)
	outcome.Flags = pre.Flags
	if pre.Discarded {
		outcome.Discarded = true
		outcome.Reason = pre.Reason
		if persist {
			if err := r.recordAttempt(gufi, flight.Callsign, false, pre.Reason, pre.Flags); err != nil {
				return nil, err
			}
		}
		r.logger.Debug("Discarded flight",
			logger.String("gufi", gufi),
			logger.String("reason", pre.Reason))
		return outcome, nil
	}

	airport := flight.Arrival
	if airport == "" {
		airport = r.cfg.Station.AirportICAO
	}
	runways, err := r.refs.GetRunways(airport)
	if err != nil {
		return nil, err
	}

	perf, err := r.refs.GetPerformance(flight.AircraftType)
	if err != nil {
		r.logger.Warn("Aircraft reference lookup failed",
			logger.String("type", flight.AircraftType), Error(err))
	}

	for _, leg := range pre.Legs {
		legOutcome := r.scoreLeg(leg, airport, runways, perf, persist)
		outcome.Legs = append(outcome.Legs, legOutcome)
	}

	// A split flight's legs persist under suffixed ids, so the candidate
	// query would never see them. Record a summary attempt under the
	// source gufi too, or the flight reappears on every batch run.
	if persist && len(pre.Legs) > 1 {
		scored := 0
		var skips []string
		for _, lo := range outcome.Legs {
			if lo.Result != nil {
				scored++
			} else if lo.Skipped != "" {
				skips = append(skips, lo.Skipped)
			}
		}
		reason := ""
		if scored == 0 {
			reason = strings.Join(skips, "; ")
		}
		if err := r.recordAttempt(gufi, flight.Callsign, scored > 0, reason, pre.Flags); err != nil {
			r.logger.Error("Failed to record attempt", logger.String("gufi", gufi), Error(err))
		}
	}
	return outcome, nil
}

// scoreLeg grades one leg: derivatives, runway match, truncation,
// projection, scoring, persistence. Failures are recorded per leg so a
// scoreable leg is never lost to an unscoreable sibling.
func (r *Runner) scoreLeg(leg *track.Flight, airport string, runways []runway.Runway, perf *aircraft.Performance, persist bool) LegOutcome {
	out := LegOutcome{LegID: leg.GUFI, Kind: leg.LegKind}

	pts := track.WithDerivatives(leg.Points)
	withDerivatives := &track.Flight{GUFI: leg.GUFI, Callsign: leg.Callsign, Points: pts}

	rwy, err := runway.Select(runways, withDerivatives)
	if err != nil {
		out.Skipped = fmt.Sprintf("no runway reference data for %s", airport)
		r.persistFailure(leg, out.Skipped, nil, persist)
		return out
	}
	out.Runway = rwy

	truncated, flags := preprocess.TruncateToApproach(pts, rwy, r.cfg.Preprocessing)
	window := approach.Project(truncated, rwy, r.cfg.Projection)

	wx := r.observationFor(airport, leg)

	res, err := scoring.Score(window, rwy, wx, perf, r.cfg.Scoring)
	if err != nil {
		var unscoreable *scoring.UnscoreableError
		if errors.As(err, &unscoreable) {
			out.Skipped = unscoreable.Reason
			r.persistFailure(leg, out.Skipped, flags, persist)
			return out
		}
		out.Skipped = err.Error()
		r.persistFailure(leg, out.Skipped, flags, persist)
		return out
	}
	out.Result = res

	if persist {
		approachTime := leg.Points[len(leg.Points)-1].Time
		if err := r.scores.StoreScore(leg.GUFI, leg.Callsign, leg.AircraftType, airport, rwy.Designator, approachTime, res); err != nil {
			r.logger.Error("Failed to store score", logger.String("gufi", leg.GUFI), Error(err))
		}
		if err := r.recordAttempt(leg.GUFI, leg.Callsign, true, "", flags); err != nil {
			r.logger.Error("Failed to record attempt", logger.String("gufi", leg.GUFI), Error(err))
		}
	}

	r.logger.Info("Scored approach",
		logger.String("gufi", leg.GUFI),
		logger.String("runway", rwy.Designator),
		logger.Int("total", res.Total),
		logger.String("grade", res.Grade))
	return out
}

// observationFor finds the METAR in effect at the end of a leg
func (r *Runner) observationFor(airport string, leg *track.Flight) *weather.Observation {
	if len(leg.Points) == 0 {
		return nil
	}
	wx, err := r.refs.GetLatestObservation(airport, leg.Points[len(leg.Points)-1].Time)
	if err != nil {
		r.logger.Warn("METAR lookup failed", logger.String("airport", airport), Error(err))
		return nil
	}
	return wx
}

func (r *Runner) persistFailure(leg *track.Flight, reason string, flags []string, persist bool) {
	if !persist {
		return
	}
	if err := r.recordAttempt(leg.GUFI, leg.Callsign, false, reason, flags); err != nil {
		r.logger.Error("Failed to record attempt", logger.String("gufi", leg.GUFI), Error(err))
	}
}

func (r *Runner) recordAttempt(gufi, callsign string, success bool, reason string, flags []string) error {
	return r.scores.RecordAttempt(&sqlite.Attempt{
		GUFI:          gufi,
		Callsign:      callsign,
		AttemptTime:   time.Now().UTC(),
		Success:       success,
		FailureReason: reason,
	}, flags)
}

// Error re-exports the logger field helper used throughout this package
var Error = logger.Error
