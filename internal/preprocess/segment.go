package preprocess

import (
	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/track"
)

// minPointsForSplit is the shortest trajectory segmentation will attempt
// to split; anything shorter is treated as a single leg.
const minPointsForSplit = 10

// span is one derived leg, as inclusive point indices into the trajectory
type span struct {
	start, end int
	kind       track.LegKind
}

// segment locates touch-and-go patterns: altitude valleys below the AGL
// threshold, merged when closer than the merge window, then split into
// legs wherever the trajectory climbs more than the configured margin
// between consecutive valleys. The final leg always runs through the last
// point so the terminal portion is never orphaned.
func segment(points []track.Point, airportElevationFt float64, cfg config.PreprocessingConfig) []span {
	n := len(points)
	if n < minPointsForSplit {
		return []span{{0, n - 1, track.LegUnknown}}
	}

	smoothed := smoothAGL(points, airportElevationFt)
	valleys := mergeValleys(points, findValleys(smoothed, cfg.ValleyAGLFt), smoothed, cfg.ValleyMergeSecs)

	if len(valleys) == 0 {
		return []span{{0, n - 1, track.LegUnknown}}
	}
	if len(valleys) == 1 {
		return []span{{0, n - 1, track.LegFullStop}}
	}

	// Climb boundaries between consecutive valleys: each one starts a new
	// pattern circuit.
	var boundaries []int
	for i := 0; i < len(valleys)-1; i++ {
		if maxBetween(smoothed, valleys[i], valleys[i+1]) > smoothed[valleys[i]]+cfg.LegClimbFt {
			boundaries = append(boundaries, valleys[i])
		}
	}
	if len(boundaries) == 0 {
		return []span{{0, n - 1, track.LegFullStop}}
	}

	var spans []span
	start := 0
	for _, b := range boundaries {
		spans = append(spans, span{start, b, track.LegTouchAndGo})
		start = b
	}

	// The last leg is a full stop unless the aircraft climbed away again
	// after its final valley (a departing touch-and-go).
	lastKind := track.LegFullStop
	last := valleys[len(valleys)-1]
	if last < n-finalSpeedWindow && maxBetween(smoothed, last, n-1) > smoothed[last]+cfg.LegClimbFt {
		lastKind = track.LegTouchAndGo
	}
	spans = append(spans, span{start, n - 1, lastKind})
	return spans
}

// smoothAGL returns a 3-point moving average of height above the airport
func smoothAGL(points []track.Point, airportElevationFt float64) []float64 {
	n := len(points)
	smoothed := make([]float64, n)
	for i := range points {
		lo, hi := i-1, i+2
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		sum := 0.0
		for j := lo; j < hi; j++ {
			sum += points[j].Altitude - airportElevationFt
		}
		smoothed[i] = sum / float64(hi-lo)
	}
	return smoothed
}

// findValleys returns indices of local minima below the AGL threshold.
// A valley must be no higher than its four nearest neighbors.
func findValleys(smoothed []float64, valleyAGLFt float64) []int {
	var valleys []int
	for i := 2; i < len(smoothed)-2; i++ {
		if smoothed[i] >= valleyAGLFt {
			continue
		}
		if smoothed[i] <= smoothed[i-1] && smoothed[i] <= smoothed[i+1] &&
			smoothed[i] <= smoothed[i-2] && smoothed[i] <= smoothed[i+2] {
			valleys = append(valleys, i)
		}
	}
	return valleys
}

// mergeValleys collapses valleys closer together than the merge window,
// keeping the lower of each pair. Adjacent minima inside the window are
// the same pattern circuit, not separate touchdowns.
func mergeValleys(points []track.Point, valleys []int, smoothed []float64, mergeSecs float64) []int {
	var merged []int
	for _, v := range valleys {
		if len(merged) == 0 {
			merged = append(merged, v)
			continue
		}
		last := merged[len(merged)-1]
		if points[v].Time.Sub(points[last].Time).Seconds() > mergeSecs {
			merged = append(merged, v)
		} else if smoothed[v] < smoothed[last] {
			merged[len(merged)-1] = v
		}
	}
	return merged
}

func maxBetween(vals []float64, lo, hi int) float64 {
	max := vals[lo]
	for _, v := range vals[lo+1 : hi+1] {
		if v > max {
			max = v
		}
	}
	return max
}
