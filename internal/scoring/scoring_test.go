package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmacd/skyscore/internal/aircraft"
	"github.com/bmacd/skyscore/internal/approach"
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/weather"
)

func fp(v float64) *float64 { return &v }

var testRunway = &runway.Runway{
	Airport:     "KTST",
	Designator:  "18",
	HeadingDeg:  180,
	ElevationFt: 439,
}

// finalPoint builds an on-profile approach point at the given distance
func finalPoint(distNM, gsDevFt, crossFt, speedKt float64) approach.Point {
	ideal := 439 + 50 + distNM*318.5
	return approach.Point{
		DistNM:       distNM,
		CrossTrackFt: crossFt,
		AltitudeFt:   ideal + gsDevFt,
		AGLFt:        ideal + gsDevFt - 439,
		IdealAltFt:   ideal,
		GSDevFt:      gsDevFt,
		Speed:        fp(speedKt),
	}
}

// cleanApproach is a textbook final: on speed, slope and centerline from
// five miles to the threshold.
func cleanApproach() []approach.Point {
	var pts []approach.Point
	for d := 5.0; d > 0.1; d -= 0.25 {
		pts = append(pts, finalPoint(d, 0, 0, 70))
	}
	pts = append(pts, finalPoint(0.05, 0, 0, 65))
	return pts
}

func TestScoreUnscoreable(t *testing.T) {
	cfg := config.Default().Scoring

	t.Run("no runway", func(t *testing.T) {
		_, err := Score(cleanApproach(), nil, nil, nil, cfg)
		var uerr *UnscoreableError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "no runway selected", uerr.Reason)
	})

	t.Run("no points", func(t *testing.T) {
		_, err := Score(nil, testRunway, nil, nil, cfg)
		var uerr *UnscoreableError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "no approach points in analysis window", uerr.Reason)
	})
}

func TestScoreCleanApproach(t *testing.T) {
	cfg := config.Default().Scoring

	res, err := Score(cleanApproach(), testRunway, nil, nil, cfg)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Total)
	assert.Equal(t, 100, res.MaxTotal)
	assert.Equal(t, 100, res.Percentage)
	assert.Equal(t, "A", res.Grade)
	assert.Empty(t, res.SeverePenalties)
	assert.Equal(t, Version, res.Version)

	assert.InDelta(t, 5.0, res.Metrics.StabilizedDistNM, 0.01)
	require.NotNil(t, res.Metrics.ThresholdAGLFt)
	assert.InDelta(t, 66, *res.Metrics.ThresholdAGLFt, 2.0)

	// Defaults were used for the grading context
	assert.Equal(t, 70.0, res.Aircraft.TargetSpeedKt)
	assert.Equal(t, 45.0, res.Aircraft.DirtyStallKt)
}

func TestScoreInputOrderIrrelevant(t *testing.T) {
	cfg := config.Default().Scoring
	pts := cleanApproach()

	// Reverse to near-to-far; Score sorts internally
	reversed := make([]approach.Point, len(pts))
	for i, p := range pts {
		reversed[len(pts)-1-i] = p
	}

	a, err := Score(pts, testRunway, nil, nil, cfg)
	require.NoError(t, err)
	b, err := Score(reversed, testRunway, nil, nil, cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Total, b.Total)
	assert.Equal(t, a.Metrics.StabilizedDistNM, b.Metrics.StabilizedDistNM)
}

func TestScoreAircraftReference(t *testing.T) {
	cfg := config.Default().Scoring

	// A faster type on speed at its own reference: no speed deductions
	var pts []approach.Point
	for d := 5.0; d > 0.05; d -= 0.25 {
		pts = append(pts, finalPoint(d, 0, 0, 85))
	}
	pts = append(pts, finalPoint(0.04, 0, 0, 85))

	perf := &aircraft.Performance{Type: "SR22", ApproachSpeedKt: 85, DirtyStallKt: 60}
	res, err := Score(pts, testRunway, nil, perf, cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.SpeedControlMax, res.Categories.SpeedControl.Score)
	assert.Equal(t, 85.0, res.Aircraft.TargetSpeedKt)

	// The same trajectory graded against the default 70kt target loses points
	def, err := Score(pts, testRunway, nil, nil, cfg)
	require.NoError(t, err)
	assert.Less(t, def.Categories.SpeedControl.Score, cfg.SpeedControlMax)
}

func TestScoreGustWidensTolerance(t *testing.T) {
	cfg := config.Default().Scoring

	// 12kt off target: outside the calm-day band on most points
	var pts []approach.Point
	for d := 5.0; d > 0.05; d -= 0.25 {
		pts = append(pts, finalPoint(d, 0, 0, 82))
	}

	calm, err := Score(pts, testRunway, nil, nil, cfg)
	require.NoError(t, err)

	gusty := &weather.Observation{Airport: "KTST", WindSpeedKt: 15, WindGustKt: 20}
	windy, err := Score(pts, testRunway, gusty, nil, cfg)
	require.NoError(t, err)

	// Gust factor widens the tolerance to ±15kt, forgiving the deviation
	assert.Greater(t, windy.Categories.SpeedControl.Score, calm.Categories.SpeedControl.Score)
	assert.Equal(t, 20.0, windy.Wind.GustKt)
}

func TestScoreClampedAtZero(t *testing.T) {
	cfg := config.Default().Scoring

	// Low, slow, far off centerline, steep banks and S-turns: everything
	// wrong at once, plus both severe penalties.
	var pts []approach.Point
	for i := 0; i < 20; i++ {
		d := 5.0 - float64(i)*0.25
		side := 2000.0
		if i%2 == 1 {
			side = -2000.0
		}
		p := finalPoint(d, -300, side, 42)
		p.BankDeg = 40
		pts = append(pts, p)
	}

	res, err := Score(pts, testRunway, nil, nil, cfg)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Total)
	assert.Equal(t, "F", res.Grade)
	assert.Equal(t, 0, res.Percentage)
	require.Len(t, res.SeverePenalties, 2)
}

func TestCheckSeverePenalties(t *testing.T) {
	cfg := config.Default().Scoring

	t.Run("cfit fires when low and below glideslope", func(t *testing.T) {
		pts := []approach.Point{{AGLFt: 400, GSDevFt: -60}}
		penalties := checkSeverePenalties(pts, 45, cfg)
		require.Len(t, penalties, 1)
		assert.Equal(t, PenaltyCFITRisk, penalties[0].Kind)
		assert.Equal(t, 20, penalties[0].Points)
	})

	t.Run("cfit needs both conditions", func(t *testing.T) {
		assert.Empty(t, checkSeverePenalties([]approach.Point{{AGLFt: 600, GSDevFt: -60}}, 45, cfg))
		assert.Empty(t, checkSeverePenalties([]approach.Point{{AGLFt: 400, GSDevFt: -40}}, 45, cfg))
	})

	t.Run("stall fires slow with height to fall", func(t *testing.T) {
		pts := []approach.Point{{AGLFt: 120, Speed: fp(42)}}
		penalties := checkSeverePenalties(pts, 45, cfg)
		require.Len(t, penalties, 1)
		assert.Equal(t, PenaltyStallRisk, penalties[0].Kind)
	})

	t.Run("no stall in the flare", func(t *testing.T) {
		// Slow at 30ft AGL is a normal landing, not a hazard
		pts := []approach.Point{{AGLFt: 30, Speed: fp(42)}}
		assert.Empty(t, checkSeverePenalties(pts, 45, cfg))
	})

	t.Run("no stall with margin", func(t *testing.T) {
		pts := []approach.Point{{AGLFt: 120, Speed: fp(56)}}
		assert.Empty(t, checkSeverePenalties(pts, 45, cfg))
	})

	t.Run("missing speed is not a stall", func(t *testing.T) {
		pts := []approach.Point{{AGLFt: 120}}
		assert.Empty(t, checkSeverePenalties(pts, 45, cfg))
	})
}

func TestCrosswindKt(t *testing.T) {
	t.Run("variable wind", func(t *testing.T) {
		assert.Zero(t, CrosswindKt(nil, 15, 180))
	})

	t.Run("direct crosswind", func(t *testing.T) {
		assert.InDelta(t, 10.0, CrosswindKt(fp(270), 10, 180), 0.01)
	})

	t.Run("direct headwind", func(t *testing.T) {
		assert.InDelta(t, 0.0, CrosswindKt(fp(180), 10, 180), 0.01)
	})

	t.Run("quartering wind", func(t *testing.T) {
		assert.InDelta(t, 7.07, CrosswindKt(fp(225), 10, 180), 0.01)
	})
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"},
		{59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, letterGrade(tt.total), "total=%d", tt.total)
	}
}
