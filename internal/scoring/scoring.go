// Package scoring grades a projected approach across six weighted
// categories plus severe-penalty overrides, producing a fully explainable
// result: every deduction carries a rationale string.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/bmacd/skyscore/internal/aircraft"
	"github.com/bmacd/skyscore/internal/approach"
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/geodesy"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/weather"
)

// Score grades one approach leg. The weather observation and aircraft
// performance may be nil; configured defaults fill in. An empty point
// set is UnscoreableError, never a zero score with populated categories.
func Score(points []approach.Point, rwy *runway.Runway, wx *weather.Observation, perf *aircraft.Performance, cfg config.ScoringConfig) (*Result, error) {
	if rwy == nil {
		return nil, &UnscoreableError{Reason: "no runway selected"}
	}
	if len(points) == 0 {
		return nil, &UnscoreableError{Reason: "no approach points in analysis window"}
	}

	targetSpeed := cfg.DefaultTargetSpeedKt
	dirtyStall := cfg.DefaultDirtyStallKt
	if perf != nil {
		if perf.ApproachSpeedKt > 0 {
			targetSpeed = perf.ApproachSpeedKt
		}
		if perf.DirtyStallKt > 0 {
			dirtyStall = perf.DirtyStallKt
		}
	}

	var windDir *float64
	windSpeed, gust := 0.0, 0.0
	if wx != nil {
		windDir = wx.WindDirDeg
		windSpeed = wx.WindSpeedKt
		gust = wx.WindGustKt
	}
	crosswind := CrosswindKt(windDir, windSpeed, rwy.HeadingDeg)

	// Far-to-near order: every category scans toward the threshold
	sorted := make([]approach.Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DistNM > sorted[j].DistNM
	})

	metrics := Metrics{}
	categories := Categories{
		Descent:           scoreDescent(sorted, cfg.DescentMax),
		Stabilized:        scoreStabilized(sorted, targetSpeed, cfg.StabilizedMax, &metrics),
		Centerline:        scoreCenterline(sorted, crosswind, cfg.CrosswindFtPerKt, cfg.CenterlineMax, &metrics),
		TurnToFinal:       scoreTurnToFinal(sorted, cfg.TurnToFinalMax, &metrics),
		SpeedControl:      scoreSpeedControl(sorted, targetSpeed, gust, cfg.SpeedControlMax, &metrics),
		ThresholdCrossing: scoreThresholdCrossing(sorted, cfg.ThresholdMax, &metrics),
	}

	penalties := checkSeverePenalties(sorted, dirtyStall, cfg)

	total := categories.Descent.Score + categories.Stabilized.Score +
		categories.Centerline.Score + categories.TurnToFinal.Score +
		categories.SpeedControl.Score + categories.ThresholdCrossing.Score
	maxTotal := cfg.MaxTotal()
	for _, p := range penalties {
		total -= p.Points
	}
	if total < 0 {
		total = 0
	}
	if total > maxTotal {
		total = maxTotal
	}

	return &Result{
		Version:         Version,
		Categories:      categories,
		SeverePenalties: penalties,
		Total:           total,
		MaxTotal:        maxTotal,
		Percentage:      int(math.Round(float64(total) / float64(maxTotal) * 100)),
		Grade:           letterGrade(total),
		Metrics:         metrics,
		Wind: WindContext{
			DirDeg:      windDir,
			SpeedKt:     windSpeed,
			GustKt:      gust,
			CrosswindKt: crosswind,
		},
		Aircraft: AircraftContext{
			TargetSpeedKt: targetSpeed,
			DirtyStallKt:  dirtyStall,
		},
		ScoredAt: time.Now().UTC(),
	}, nil
}

// CrosswindKt returns the crosswind component of the wind across the
// runway. A nil direction (calm or variable wind) contributes nothing.
func CrosswindKt(windDirDeg *float64, windSpeedKt, runwayHeadingDeg float64) float64 {
	if windDirDeg == nil || windSpeedKt == 0 {
		return 0
	}
	angle := geodesy.HeadingDiffDeg(*windDirDeg, runwayHeadingDeg)
	return math.Abs(math.Sin(angle*math.Pi/180.0) * windSpeedKt)
}

// letterGrade maps a total score to the A-F scale
func letterGrade(total int) string {
	switch {
	case total >= 90:
		return "A"
	case total >= 80:
		return "B"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}
