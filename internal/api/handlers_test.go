package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmacd/skyscore/internal/batch"
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/storage/sqlite"
	"github.com/bmacd/skyscore/internal/track"
	"github.com/bmacd/skyscore/pkg/logger"
)

func fp(v float64) *float64 { return &v }

func testServer(t *testing.T) (*httptest.Server, *sqlite.FlightStorage) {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	// Each connection would otherwise get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.Station.AirportICAO = "KTST"

	log := logger.Nop()
	flights := sqlite.NewFlightStorage(db, log)
	refs := sqlite.NewReferenceStorage(db, log)
	scores := sqlite.NewScoreStorage(db, log)
	runner := batch.NewRunner(flights, refs, scores, cfg, log)

	require.NoError(t, refs.StoreRunway(&runway.Runway{
		Airport: "KTST", Designator: "18",
		ThresholdLat: 41.0, ThresholdLon: -73.7,
		HeadingDeg: 180, ElevationFt: 439, GlideslopeDeg: 3, TCHFt: 50,
	}))

	router := NewRouter(runner, flights, refs, scores, cfg, log)
	srv := httptest.NewServer(router.Routes())
	t.Cleanup(srv.Close)
	return srv, flights
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	body := getJSON(t, srv.URL+"/api/v1/health", http.StatusOK)
	assert.Equal(t, "ok", body["status"])
}

func TestGetConfig(t *testing.T) {
	srv, _ := testServer(t)
	body := getJSON(t, srv.URL+"/api/v1/config", http.StatusOK)
	require.Contains(t, body, "scoring")
	require.Contains(t, body, "station")
}

func TestFlightEndpoints(t *testing.T) {
	srv, flights := testServer(t)

	start := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	pts := []track.Point{
		{Time: start, Lat: 41.05, Lon: -73.7, Altitude: 2000, Speed: fp(100), Course: fp(180)},
		{Time: start.Add(10 * time.Second), Lat: 41.04, Lon: -73.7, Altitude: 1800, Speed: fp(95), Course: fp(180)},
	}
	require.NoError(t, flights.StorePoints("FL1", "N12345", "", "KTST", pts))

	t.Run("list", func(t *testing.T) {
		body := getJSON(t, srv.URL+"/api/v1/flights", http.StatusOK)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("list filtered by date", func(t *testing.T) {
		body := getJSON(t, srv.URL+"/api/v1/flights?date=2026-08-01", http.StatusOK)
		assert.Equal(t, float64(1), body["count"])

		body = getJSON(t, srv.URL+"/api/v1/flights?date=2026-08-02", http.StatusOK)
		assert.Equal(t, float64(0), body["count"])
	})

	t.Run("bad date rejected", func(t *testing.T) {
		getJSON(t, srv.URL+"/api/v1/flights?date=yesterday", http.StatusBadRequest)
	})

	t.Run("track", func(t *testing.T) {
		body := getJSON(t, srv.URL+"/api/v1/flights/FL1/track", http.StatusOK)
		assert.Equal(t, "FL1", body["gufi"])
	})

	t.Run("missing flight", func(t *testing.T) {
		getJSON(t, srv.URL+"/api/v1/flights/nope/track", http.StatusNotFound)
	})
}

func TestScoreOnDemand(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/flights/nope/score", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScoreEndpoints(t *testing.T) {
	srv, _ := testServer(t)

	t.Run("missing score", func(t *testing.T) {
		getJSON(t, srv.URL+"/api/v1/scores/nope", http.StatusNotFound)
	})

	t.Run("empty list", func(t *testing.T) {
		body := getJSON(t, srv.URL+"/api/v1/scores", http.StatusOK)
		assert.Equal(t, float64(0), body["count"])
	})

	t.Run("bad benchmark dimension", func(t *testing.T) {
		getJSON(t, srv.URL+"/api/v1/benchmarks/color", http.StatusBadRequest)
	})

	t.Run("valid benchmark dimension", func(t *testing.T) {
		body := getJSON(t, srv.URL+"/api/v1/benchmarks/ac_type", http.StatusOK)
		assert.Equal(t, "ac_type", body["dimension"])
	})
}
