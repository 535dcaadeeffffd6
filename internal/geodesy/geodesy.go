// Package geodesy provides great-circle distance, bearing, and
// runway-relative projection on a spherical earth.
package geodesy

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusNM is the mean earth radius in nautical miles
	EarthRadiusNM = 3440.065

	// FeetPerNM converts nautical miles to feet
	FeetPerNM = 6076.12

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// ErrInvalidCoordinate indicates a latitude outside [-90, 90] or a
// longitude outside [-180, 180].
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// validate checks a single lat/lon pair
func validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return fmt.Errorf("%w: lat=%g lon=%g", ErrInvalidCoordinate, lat, lon)
	}
	return nil
}

// DistanceNM returns the great-circle distance in nautical miles between
// two points, using the haversine formula. Symmetric; zero for identical
// points.
func DistanceNM(latA, lonA, latB, lonB float64) (float64, error) {
	if err := validate(latA, lonA); err != nil {
		return 0, err
	}
	if err := validate(latB, lonB); err != nil {
		return 0, err
	}

	dLat := (latB - latA) * degToRad
	dLon := (lonB - lonA) * degToRad

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(latA*degToRad)*math.Cos(latB*degToRad)*math.Pow(math.Sin(dLon/2), 2)

	return 2 * EarthRadiusNM * math.Asin(math.Min(1, math.Sqrt(a))), nil
}

// BearingDeg returns the initial bearing in degrees from the first point
// to the second, normalized to [0, 360). For coincident points the bearing
// is meaningless; this returns 0 rather than failing.
func BearingDeg(latFrom, lonFrom, latTo, lonTo float64) float64 {
	lat1 := latFrom * degToRad
	lon1 := lonFrom * degToRad
	lat2 := latTo * degToRad
	lon2 := lonTo * degToRad

	y := math.Sin(lon2-lon1) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	bearing := math.Atan2(y, x) * radToDeg

	return math.Mod(bearing+360.0, 360.0)
}

// Projection is a point expressed in a runway-relative frame
type Projection struct {
	// AlongTrackNM is the distance to the threshold measured along the
	// extended centerline. Positive means short of the threshold, i.e.
	// still approaching.
	AlongTrackNM float64

	// CrossTrackFt is the signed lateral offset from the extended
	// centerline. Positive is right of centerline looking inbound.
	CrossTrackFt float64
}

// ProjectToRunway rotates the bearing/distance pair from the runway
// threshold into a frame aligned with the inbound course.
func ProjectToRunway(lat, lon, thresholdLat, thresholdLon, runwayHeadingDeg float64) (Projection, error) {
	dist, err := DistanceNM(thresholdLat, thresholdLon, lat, lon)
	if err != nil {
		return Projection{}, err
	}

	bearing := BearingDeg(thresholdLat, thresholdLon, lat, lon)
	outbound := math.Mod(runwayHeadingDeg+180, 360)

	// Signed angle from the outbound course to the point, in (-180, 180]
	delta := bearing - outbound
	for delta > 180 {
		delta -= 360
	}
	for delta <= -180 {
		delta += 360
	}

	deltaRad := delta * degToRad
	return Projection{
		AlongTrackNM: dist * math.Cos(deltaRad),
		CrossTrackFt: -dist * math.Sin(deltaRad) * FeetPerNM,
	}, nil
}

// HeadingDiffDeg returns the absolute difference between two headings,
// wrapped to [0, 180].
func HeadingDiffDeg(a, b float64) float64 {
	diff := math.Abs(a - b)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}
