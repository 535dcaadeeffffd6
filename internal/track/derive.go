package track

// maxDerivativeGapSecs is the largest sampling gap a derivative is
// computed across. Radar dropouts longer than this would produce
// nonsense rates.
const maxDerivativeGapSecs = 120.0

// WithDerivatives returns a copy of the points with turn rate (deg/s) and
// longitudinal acceleration (kt/s) filled in from consecutive samples.
// The first point, and any point across an unusable time gap, keeps nil
// derivatives. The input slice is not modified.
func WithDerivatives(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if len(out) < 2 {
		return out
	}

	for i := 1; i < len(out); i++ {
		prev, curr := out[i-1], out[i]

		dt := curr.Time.Sub(prev.Time).Seconds()
		if dt <= 0 || dt > maxDerivativeGapSecs {
			continue
		}

		if prev.Speed != nil && curr.Speed != nil {
			accel := (*curr.Speed - *prev.Speed) / dt
			out[i].Accel = &accel
		}

		if prev.Course != nil && curr.Course != nil {
			diff := *curr.Course - *prev.Course
			if diff > 180 {
				diff -= 360
			} else if diff < -180 {
				diff += 360
			}
			rate := diff / dt
			out[i].TurnRate = &rate
		}
	}

	return out
}
