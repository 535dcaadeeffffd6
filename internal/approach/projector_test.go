package approach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/track"
)

func fp(v float64) *float64 { return &v }

// Runway 18: threshold at 41.0N, final approach flown southbound
var testRunway = &runway.Runway{
	Airport:       "KTST",
	Designator:    "18",
	ThresholdLat:  41.0,
	ThresholdLon:  -73.7,
	HeadingDeg:    180,
	ElevationFt:   439,
	GlideslopeDeg: 3.0,
	TCHFt:         55,
}

// onFinal returns a point d nautical miles out on the extended centerline
func onFinal(distNM, altitude float64, course *float64) track.Point {
	return track.Point{
		Lat:      41.0 + distNM/60.0,
		Lon:      -73.7,
		Altitude: altitude,
		Course:   course,
	}
}

func TestBankAngleDeg(t *testing.T) {
	// Standard-rate-ish turn at approach speed
	assert.InDelta(t, 13.9, BankAngleDeg(3.0, 90), 0.1)
	// Sign of the turn does not matter
	assert.InDelta(t, BankAngleDeg(3.0, 90), BankAngleDeg(-3.0, 90), 1e-9)
	assert.Zero(t, BankAngleDeg(0, 90))
}

func TestProject(t *testing.T) {
	cfg := config.Default().Projection

	t.Run("point on glideslope", func(t *testing.T) {
		// At 2nm on a 3 degree slope with TCH 55: 439 + 55 + 2*6076.12*tan(3deg)
		pts := []track.Point{onFinal(2.0, 1131, fp(180))}
		out := Project(pts, testRunway, cfg)
		require.Len(t, out, 1)

		assert.InDelta(t, 2.0, out[0].DistNM, 0.01)
		assert.InDelta(t, 0.0, out[0].CrossTrackFt, 15.0)
		assert.InDelta(t, 1131, out[0].IdealAltFt, 5.0)
		assert.InDelta(t, 0.0, out[0].GSDevFt, 5.0)
		assert.InDelta(t, 692, out[0].AGLFt, 0.5)
	})

	t.Run("course off inbound heading excluded", func(t *testing.T) {
		pts := []track.Point{
			onFinal(3.0, 1400, fp(180)),
			onFinal(2.5, 1300, fp(90)), // crossing traffic
		}
		out := Project(pts, testRunway, cfg)
		require.Len(t, out, 1)
		assert.Equal(t, 0, out[0].Index)
	})

	t.Run("missing course is not excluded", func(t *testing.T) {
		pts := []track.Point{onFinal(2.0, 1131, nil)}
		out := Project(pts, testRunway, cfg)
		assert.Len(t, out, 1)
	})

	t.Run("outside analysis window excluded", func(t *testing.T) {
		pts := []track.Point{
			onFinal(12.0, 4000, fp(180)), // beyond max range
			onFinal(-0.5, 450, fp(180)),  // past the threshold
			onFinal(5.0, 2100, fp(180)),
		}
		out := Project(pts, testRunway, cfg)
		require.Len(t, out, 1)
		assert.Equal(t, 2, out[0].Index)
	})

	t.Run("corrupt point skipped, not fatal", func(t *testing.T) {
		pts := []track.Point{
			{Lat: 999, Lon: 0, Altitude: 1200, Course: fp(180)},
			onFinal(2.0, 1131, fp(180)),
		}
		out := Project(pts, testRunway, cfg)
		require.Len(t, out, 1)
		assert.Equal(t, 1, out[0].Index)
	})

	t.Run("runway geometry falls back to config", func(t *testing.T) {
		bare := *testRunway
		bare.GlideslopeDeg = 0
		bare.TCHFt = 0

		pts := []track.Point{onFinal(2.0, 1131, fp(180))}
		out := Project(pts, &bare, cfg)
		require.Len(t, out, 1)
		// Config default TCH is 50, five feet below the runway's own 55
		assert.InDelta(t, 1126, out[0].IdealAltFt, 5.0)
	})

	t.Run("bank angle from derivatives", func(t *testing.T) {
		p := onFinal(2.0, 1131, fp(180))
		p.Speed = fp(90)
		p.TurnRate = fp(3.0)
		out := Project([]track.Point{p}, testRunway, cfg)
		require.Len(t, out, 1)
		assert.InDelta(t, 13.9, out[0].BankDeg, 0.1)
	})

	t.Run("empty window is valid", func(t *testing.T) {
		out := Project(nil, testRunway, cfg)
		assert.Empty(t, out)
	})
}
