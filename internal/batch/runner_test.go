package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/storage/sqlite"
	"github.com/bmacd/skyscore/internal/track"
	"github.com/bmacd/skyscore/pkg/logger"
)

func fp(v float64) *float64 { return &v }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Station = config.StationConfig{
		AirportICAO: "KTST",
		Latitude:    41.0,
		Longitude:   -73.7,
		ElevationFt: 439,
	}
	cfg.Batch.Workers = 2
	return cfg
}

func testRunner(t *testing.T) (*Runner, *sqlite.FlightStorage, *sqlite.ScoreStorage) {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	// Each connection would otherwise get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	log := logger.Nop()
	flights := sqlite.NewFlightStorage(db, log)
	refs := sqlite.NewReferenceStorage(db, log)
	scores := sqlite.NewScoreStorage(db, log)

	require.NoError(t, refs.StoreRunway(&runway.Runway{
		Airport:       "KTST",
		Designator:    "18",
		ThresholdLat:  41.0,
		ThresholdLon:  -73.7,
		HeadingDeg:    180,
		ElevationFt:   439,
		GlideslopeDeg: 3.0,
		TCHFt:         50,
	}))

	return NewRunner(flights, refs, scores, testConfig(), log), flights, scores
}

// landingTrack is a textbook straight-in to runway 18: on a 3 degree
// slope at 70kt from eight miles out, with a short rollout.
func landingTrack(start time.Time) []track.Point {
	var pts []track.Point
	i := 0
	add := func(lat, altitude, speed float64) {
		pts = append(pts, track.Point{
			Time:     start.Add(time.Duration(i) * 13 * time.Second),
			Lat:      lat,
			Lon:      -73.7,
			Altitude: altitude,
			Speed:    fp(speed),
			Course:   fp(180),
		})
		i++
	}

	for d := 8.0; d >= 0.25; d -= 0.25 {
		add(41.0+d/60.0, 439+50+d*318.5, 70)
	}
	add(41.0+0.1/60.0, 439+50+0.1*318.5, 68)
	add(41.0+0.05/60.0, 439+50+0.05*318.5, 65)
	for j := 0; j < 3; j++ {
		add(40.9999, 444, 30)
	}
	return pts
}

// touchAndGoTrack flies two circuits: a low pass, a climb-out and a
// second descent to a full stop, so preprocessing splits it into two legs.
func touchAndGoTrack(start time.Time) []track.Point {
	agl := []float64{2000, 1500, 1000, 600, 300, 80, 60, 80, 300, 600, 1000, 1000, 600, 300, 80, 50, 40, 40, 40, 40}
	pts := make([]track.Point, 0, len(agl))
	for i, a := range agl {
		pts = append(pts, track.Point{
			Time:     start.Add(time.Duration(i) * 30 * time.Second),
			Lat:      41.0 + float64(len(agl)-i)*0.005,
			Lon:      -73.7,
			Altitude: 439 + a,
			Speed:    fp(70),
			Course:   fp(180),
		})
	}
	return pts
}

// overflight never descends: the ghost filter should discard it
func overflightTrack(start time.Time) []track.Point {
	var pts []track.Point
	for i := 0; i < 20; i++ {
		pts = append(pts, track.Point{
			Time:     start.Add(time.Duration(i) * 10 * time.Second),
			Lat:      41.2 - float64(i)*0.01,
			Lon:      -73.7,
			Altitude: 1439 + float64(i%3)*20,
			Speed:    fp(110),
			Course:   fp(180),
		})
	}
	return pts
}

func TestScoreFlightPreview(t *testing.T) {
	r, flights, scores := testRunner(t)
	start := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, flights.StorePoints("GOOD1", "N100AB", "KALB", "KTST", landingTrack(start)))

	outcome, err := r.ScoreFlight("GOOD1", false)
	require.NoError(t, err)
	require.False(t, outcome.Discarded)
	require.Len(t, outcome.Legs, 1)

	leg := outcome.Legs[0]
	require.NotNil(t, leg.Result, "skipped: %s", leg.Skipped)
	assert.Equal(t, "18", leg.Runway.Designator)
	assert.Equal(t, "A", leg.Result.Grade)
	assert.GreaterOrEqual(t, leg.Result.Total, 95)
	assert.Empty(t, leg.Result.SeverePenalties)

	// Preview persists nothing
	_, err = scores.GetScore("GOOD1")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
	_, err = scores.GetAttempt("GOOD1")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestScoreFlightUnknownGufi(t *testing.T) {
	r, _, _ := testRunner(t)
	_, err := r.ScoreFlight("nope", false)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestRun(t *testing.T) {
	r, flights, scores := testRunner(t)
	start := time.Now().UTC().Add(-2 * time.Hour)

	require.NoError(t, flights.StorePoints("GOOD1", "N100AB", "KALB", "KTST", landingTrack(start)))
	require.NoError(t, flights.StorePoints("GHOST1", "N200CD", "", "KTST", overflightTrack(start)))

	filter := sqlite.CandidateFilter{
		Since:     start.Add(-time.Hour),
		MinPoints: 5,
		MaxMinAlt: 2000,
		Limit:     10,
	}

	stats, err := r.Run(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Candidates)
	assert.Equal(t, 1, stats.Scored)
	assert.Equal(t, 1, stats.Discarded)
	assert.Zero(t, stats.Unscoreable)
	assert.Zero(t, stats.Errors)

	t.Run("score persisted", func(t *testing.T) {
		rec, err := scores.GetScore("GOOD1")
		require.NoError(t, err)
		assert.Equal(t, "A", rec.Grade)
		assert.Equal(t, "18", rec.Runway)
		assert.Equal(t, "KTST", rec.Airport)

		attempt, err := scores.GetAttempt("GOOD1")
		require.NoError(t, err)
		assert.True(t, attempt.Success)
	})

	t.Run("ghost audited", func(t *testing.T) {
		attempt, err := scores.GetAttempt("GHOST1")
		require.NoError(t, err)
		assert.False(t, attempt.Success)
		assert.Contains(t, attempt.FailureReason, "no descent")

		_, err = scores.GetScore("GHOST1")
		assert.ErrorIs(t, err, sqlite.ErrNotFound)
	})

	t.Run("benchmarks refreshed", func(t *testing.T) {
		benchmarks, err := scores.GetBenchmarks("airport")
		require.NoError(t, err)
		require.Len(t, benchmarks, 1)
		assert.Equal(t, "KTST", benchmarks[0].Key)
		assert.Equal(t, 1, benchmarks[0].SampleCount)
	})

	t.Run("split flight skipped on rerun", func(t *testing.T) {
		require.NoError(t, flights.StorePoints("TNG1", "N300EF", "", "KTST", touchAndGoTrack(start)))

		stats, err := r.Run(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Candidates)

		// Legs persist under suffixed ids plus a summary row under the
		// source gufi, which is what the candidate query matches on
		_, err = scores.GetAttempt("TNG1#leg1")
		require.NoError(t, err)
		_, err = scores.GetAttempt("TNG1#leg2")
		require.NoError(t, err)
		attempt, err := scores.GetAttempt("TNG1")
		require.NoError(t, err)
		assert.Contains(t, attempt.FailureReason, "PATTERN: 2 legs detected")

		stats, err = r.Run(context.Background(), filter)
		require.NoError(t, err)
		assert.Zero(t, stats.Candidates)
	})

	t.Run("second run skips attempted flights", func(t *testing.T) {
		stats, err := r.Run(context.Background(), filter)
		require.NoError(t, err)
		assert.Zero(t, stats.Candidates)

		rescore := filter
		rescore.Rescore = true
		stats, err = r.Run(context.Background(), rescore)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Candidates)
	})
}
