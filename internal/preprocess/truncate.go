package preprocess

import (
	"fmt"

	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/geodesy"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/track"
)

// farDistanceNM stands in for points whose coordinates cannot be
// projected; they never qualify as the approach-zone entry.
const farDistanceNM = 9999

// TruncateToApproach drops the cruise portion of a leg: leading points
// farther than the configured radius from the runway threshold, then
// leading points still above the entry AGL ceiling. Only the front of the
// trajectory is ever trimmed, so the terminal portion survives intact.
// Returned flags record what was removed, for auditing.
func TruncateToApproach(points []track.Point, rwy *runway.Runway, cfg config.PreprocessingConfig) ([]track.Point, []string) {
	if len(points) == 0 || rwy == nil {
		return points, nil
	}

	var flags []string

	start := 0
	for i, p := range points {
		dist, err := geodesy.DistanceNM(p.Lat, p.Lon, rwy.ThresholdLat, rwy.ThresholdLon)
		if err != nil {
			dist = farDistanceNM
		}
		if dist <= cfg.TruncateRadiusNM {
			start = i
			break
		}
	}
	if start > 0 {
		flags = append(flags, fmt.Sprintf("TRUNCATED: removed %d cruise points (>%.0fnm)", start, cfg.TruncateRadiusNM))
	}

	for i := start; i < len(points); i++ {
		agl := points[i].Altitude - rwy.ElevationFt
		if agl <= cfg.TruncateEntryAGLFt {
			if i > start {
				flags = append(flags, fmt.Sprintf("TRUNCATED: removed %d high-altitude points (>%.0fft AGL)", i-start, cfg.TruncateEntryAGLFt))
			}
			start = i
			break
		}
	}

	return points[start:], flags
}
