// Package preprocess turns raw recorded trajectories into scoreable
// approach legs: ghost-flight rejection, touch-and-go segmentation, and
// cruise truncation. Everything here is a pure function of its inputs and
// the configuration, so re-running it always reproduces the same result.
package preprocess

import (
	"fmt"

	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/track"
)

// Result is the outcome of preprocessing one raw flight. A discarded
// flight carries the specific ghost reason for auditing; an accepted
// flight carries one or more derived legs.
type Result struct {
	Discarded          bool
	Reason             string
	Flags              []string
	Legs               []*track.Flight
	OriginalPointCount int
}

// Preprocess runs the ghost filter and touch-and-go segmentation over a
// raw flight. Truncation happens per leg once a runway is known, via
// TruncateToApproach.
func Preprocess(f *track.Flight, airportElevationFt float64, cfg config.PreprocessingConfig) *Result {
	result := &Result{OriginalPointCount: len(f.Points)}

	if len(f.Points) == 0 {
		result.Discarded = true
		result.Reason = "no track data"
		result.Flags = append(result.Flags, "GHOST: no track data")
		return result
	}

	if reason, ghost := detectGhost(f, airportElevationFt, cfg); ghost {
		result.Discarded = true
		result.Reason = reason
		result.Flags = append(result.Flags, "GHOST: "+reason)
		return result
	}

	spans := segment(f.Points, airportElevationFt, cfg)
	if len(spans) > 1 {
		result.Flags = append(result.Flags, fmt.Sprintf("PATTERN: %d legs detected", len(spans)))
	}

	for i, s := range spans {
		id := track.LegID(f.GUFI, i+1, len(spans))
		result.Legs = append(result.Legs, f.SubFlight(id, i+1, s.kind, s.start, s.end))
	}
	return result
}
