package preprocess

import (
	"fmt"

	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/track"
)

// finalSpeedWindow is how many trailing points the deceleration check
// looks at. Landing traffic should be slowing by then.
const finalSpeedWindow = 5

// detectGhost decides whether a trajectory shows no evidence of a real
// approach. Any single trigger is sufficient; the reason string is kept
// for operational triage.
func detectGhost(f *track.Flight, airportElevationFt float64, cfg config.PreprocessingConfig) (string, bool) {
	if len(f.Points) < cfg.MinTrackPoints {
		return fmt.Sprintf("too few track points (%d)", len(f.Points)), true
	}

	minAlt, maxAlt := f.AltitudeRange()
	minAGL := minAlt - airportElevationFt

	// Never descended far enough: radar probably lost the flight at cruise
	if minAGL > cfg.GhostMinAGLFt {
		return fmt.Sprintf("never below %.0fft AGL (min: %.0fft AGL)", cfg.GhostMinAGLFt, minAGL), true
	}

	// Essentially level throughout: an overflight, not an arrival
	if altRange := maxAlt - minAlt; altRange < cfg.GhostAltRangeFt {
		return fmt.Sprintf("no descent (alt range only %.0fft)", altRange), true
	}

	// Coverage ended before the approach
	lastAGL := f.Points[len(f.Points)-1].Altitude - airportElevationFt
	if lastAGL > cfg.GhostLastAGLFt {
		return fmt.Sprintf("last point too high (%.0fft AGL)", lastAGL), true
	}

	// Terminal speeds never came down: not configuring to land
	minFinalSpeed, haveSpeed := 0.0, false
	start := len(f.Points) - finalSpeedWindow
	if start < 0 {
		start = 0
	}
	for _, p := range f.Points[start:] {
		if p.Speed == nil {
			continue
		}
		if !haveSpeed || *p.Speed < minFinalSpeed {
			minFinalSpeed = *p.Speed
			haveSpeed = true
		}
	}
	if haveSpeed && minFinalSpeed > cfg.GhostFinalSpeedKt {
		return fmt.Sprintf("final speeds too high (%.0fkt, not slowing to land)", minFinalSpeed), true
	}

	return "", false
}
