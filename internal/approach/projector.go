// Package approach maps cleaned trajectories onto a runway-relative
// analysis window: distance to threshold, centerline offset, glideslope
// deviation and bank angle for every usable point.
package approach

import (
	"math"

	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/internal/geodesy"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/track"
)

const (
	gravityFtPerS2 = 32.2
	ktToFtPerS     = 1.687
	degToRad       = math.Pi / 180.0
)

// Point is a track point enriched with runway-relative derived fields.
// Computed fresh on every run and never persisted by this package.
type Point struct {
	Index         int      `json:"idx"`
	DistNM        float64  `json:"dist_nm"`        // along-track to threshold
	CrossTrackFt  float64  `json:"cross_track_ft"` // signed, + right of centerline
	AltitudeFt    float64  `json:"altitude_ft"`
	AGLFt         float64  `json:"agl_ft"`
	IdealAltFt    float64  `json:"ideal_alt_ft"`
	GSDevFt       float64  `json:"gs_dev_ft"` // + above glideslope, - below
	BankDeg       float64  `json:"bank_deg"`
	Speed         *float64 `json:"speed,omitempty"`
	VerticalSpeed *float64 `json:"vertical_speed,omitempty"`
	Course        *float64 `json:"course,omitempty"`
}

// BankAngleDeg derives bank angle from turn rate and speed, assuming a
// coordinated turn: atan(v * omega / g).
func BankAngleDeg(turnRateDegPerS, speedKt float64) float64 {
	speedFtS := speedKt * ktToFtPerS
	omega := turnRateDegPerS * degToRad
	return math.Abs(math.Atan(speedFtS*omega/gravityFtPerS2) / degToRad)
}

// Project computes the approach-window view of a leg against a runway.
// Points are excluded when their course is more than the configured
// tolerance off the inbound heading, when they fall outside
// (0, MaxRangeNM] along track, or when their coordinates cannot be
// projected; a corrupt point never fails the whole leg. An empty result
// is valid and means no usable approach data.
func Project(points []track.Point, rwy *runway.Runway, cfg config.ProjectionConfig) []Point {
	gsAngle := rwy.GlideslopeDeg
	if gsAngle <= 0 {
		gsAngle = cfg.GlideslopeDeg
	}
	tch := rwy.TCHFt
	if tch <= 0 {
		tch = cfg.TCHFt
	}
	tanGS := math.Tan(gsAngle * degToRad)

	out := make([]Point, 0, len(points))
	for i, p := range points {
		proj, err := geodesy.ProjectToRunway(p.Lat, p.Lon, rwy.ThresholdLat, rwy.ThresholdLon, rwy.HeadingDeg)
		if err != nil {
			continue
		}

		if p.Course != nil && geodesy.HeadingDiffDeg(*p.Course, rwy.HeadingDeg) > cfg.HeadingToleranceDeg {
			continue
		}
		if proj.AlongTrackNM <= 0 || proj.AlongTrackNM > cfg.MaxRangeNM {
			continue
		}

		idealAlt := rwy.ElevationFt + tch + proj.AlongTrackNM*geodesy.FeetPerNM*tanGS

		bank := 0.0
		if p.TurnRate != nil && p.Speed != nil {
			bank = BankAngleDeg(*p.TurnRate, *p.Speed)
		}

		out = append(out, Point{
			Index:         i,
			DistNM:        proj.AlongTrackNM,
			CrossTrackFt:  proj.CrossTrackFt,
			AltitudeFt:    p.Altitude,
			AGLFt:         p.Altitude - rwy.ElevationFt,
			IdealAltFt:    idealAlt,
			GSDevFt:       p.Altitude - idealAlt,
			BankDeg:       bank,
			Speed:         p.Speed,
			VerticalSpeed: p.VerticalSpeed,
			Course:        p.Course,
		})
	}
	return out
}
