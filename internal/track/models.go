// Package track holds the flight and track-point data model shared by the
// preprocessing and scoring pipeline.
package track

import (
	"fmt"
	"time"
)

// Point is a single position report. Speed, course and the derived fields
// are nil when the feed did not report them.
type Point struct {
	Time          time.Time `json:"position_time"`
	Lat           float64   `json:"latitude"`
	Lon           float64   `json:"longitude"`
	Altitude      float64   `json:"altitude"` // ft MSL, barometric
	Speed         *float64  `json:"speed,omitempty"`
	Course        *float64  `json:"track,omitempty"` // deg true
	VerticalSpeed *float64  `json:"vertical_speed,omitempty"` // fpm
	TurnRate      *float64  `json:"turn_rate,omitempty"`      // deg/s, derived
	Accel         *float64  `json:"accel,omitempty"`          // kt/s, derived
}

// Flight is one flown leg: an identified, time-ordered trajectory.
// A touch-and-go split produces derived flights whose GUFI carries a
// "#legN" suffix and whose SourceGUFI points back at the original.
type Flight struct {
	GUFI         string  `json:"gufi"`
	SourceGUFI   string  `json:"source_gufi,omitempty"`
	Leg          int     `json:"leg,omitempty"`
	LegKind      LegKind `json:"leg_kind,omitempty"`
	Callsign     string  `json:"callsign"`
	AircraftType string  `json:"aircraft_type,omitempty"`
	Departure    string  `json:"departure,omitempty"`
	Arrival      string  `json:"arrival,omitempty"`
	Points       []Point `json:"points"`
}

// LegKind classifies how a leg terminated
type LegKind string

const (
	LegUnknown    LegKind = "unknown"
	LegFullStop   LegKind = "full_stop"
	LegTouchAndGo LegKind = "touch_and_go"
)

// LegID returns the flight id used for a derived leg. A flight that was
// not split keeps its bare GUFI; every leg of a split flight is suffixed,
// "#leg1" included, so legs are distinguishable downstream.
func LegID(gufi string, leg, totalLegs int) string {
	if totalLegs <= 1 {
		return gufi
	}
	return fmt.Sprintf("%s#leg%d", gufi, leg)
}

// AltitudeRange returns the minimum and maximum altitude across the points
func (f *Flight) AltitudeRange() (minAlt, maxAlt float64) {
	if len(f.Points) == 0 {
		return 0, 0
	}
	minAlt, maxAlt = f.Points[0].Altitude, f.Points[0].Altitude
	for _, p := range f.Points[1:] {
		if p.Altitude < minAlt {
			minAlt = p.Altitude
		}
		if p.Altitude > maxAlt {
			maxAlt = p.Altitude
		}
	}
	return minAlt, maxAlt
}

// FinalCourse scans from the end for the last point with a course value.
// The second return is false when no point carries one.
func (f *Flight) FinalCourse() (float64, bool) {
	for i := len(f.Points) - 1; i >= 0; i-- {
		if f.Points[i].Course != nil {
			return *f.Points[i].Course, true
		}
	}
	return 0, false
}

// SubFlight returns a derived flight with the given id, covering points
// [start, end] inclusive and sharing the parent's backing array.
func (f *Flight) SubFlight(id string, leg int, kind LegKind, start, end int) *Flight {
	src := f.SourceGUFI
	if src == "" {
		src = f.GUFI
	}
	return &Flight{
		GUFI:         id,
		SourceGUFI:   src,
		Leg:          leg,
		LegKind:      kind,
		Callsign:     f.Callsign,
		AircraftType: f.AircraftType,
		Departure:    f.Departure,
		Arrival:      f.Arrival,
		Points:       f.Points[start : end+1],
	}
}
