// Package runway holds runway reference geometry and the selector that
// matches a flown trajectory to the runway end it most likely used.
package runway

import (
	"errors"

	"github.com/bmacd/skyscore/internal/geodesy"
	"github.com/bmacd/skyscore/internal/track"
)

// Runway describes one runway end. Static reference data; never mutated.
type Runway struct {
	Airport       string  `json:"airport" toml:"airport"`
	Designator    string  `json:"designator" toml:"designator"` // e.g. "16", "34", "06L"
	ThresholdLat  float64 `json:"threshold_lat" toml:"threshold_lat"`
	ThresholdLon  float64 `json:"threshold_lon" toml:"threshold_lon"`
	HeadingDeg    float64 `json:"heading_deg" toml:"heading_deg"` // true
	ElevationFt   float64 `json:"elevation_ft" toml:"elevation_ft"`
	GlideslopeDeg float64 `json:"glideslope_deg" toml:"glideslope_deg"` // nominal, usually 3.0
	TCHFt         float64 `json:"tch_ft" toml:"tch_ft"`                 // threshold crossing height target
}

// ErrNoCandidates indicates an empty runway set was passed to Select
var ErrNoCandidates = errors.New("no candidate runways")

// Select picks the runway whose heading best matches the trajectory's
// final course (last point carrying a course value), comparing absolute
// heading differences wrapped to [0, 180]. When no point has a course the
// first candidate is returned; that is a documented degenerate case, not
// an error.
func Select(candidates []Runway, f *track.Flight) (*Runway, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	course, ok := f.FinalCourse()
	if !ok {
		return &candidates[0], nil
	}

	best := 0
	bestDiff := geodesy.HeadingDiffDeg(candidates[0].HeadingDeg, course)
	for i := 1; i < len(candidates); i++ {
		diff := geodesy.HeadingDiffDeg(candidates[i].HeadingDeg, course)
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return &candidates[best], nil
}
