package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestLegID(t *testing.T) {
	assert.Equal(t, "FL123", LegID("FL123", 1, 1))
	assert.Equal(t, "FL123#leg1", LegID("FL123", 1, 2))
	assert.Equal(t, "FL123#leg2", LegID("FL123", 2, 2))
}

func TestAltitudeRange(t *testing.T) {
	f := &Flight{Points: []Point{
		{Altitude: 3000},
		{Altitude: 1200},
		{Altitude: 4500},
	}}
	minAlt, maxAlt := f.AltitudeRange()
	assert.Equal(t, 1200.0, minAlt)
	assert.Equal(t, 4500.0, maxAlt)

	empty := &Flight{}
	minAlt, maxAlt = empty.AltitudeRange()
	assert.Zero(t, minAlt)
	assert.Zero(t, maxAlt)
}

func TestFinalCourse(t *testing.T) {
	f := &Flight{Points: []Point{
		{Course: fp(90)},
		{Course: fp(160)},
		{Course: nil}, // trailing point without course
	}}
	course, ok := f.FinalCourse()
	require.True(t, ok)
	assert.Equal(t, 160.0, course)

	noCourse := &Flight{Points: []Point{{}, {}}}
	_, ok = noCourse.FinalCourse()
	assert.False(t, ok)
}

func TestSubFlight(t *testing.T) {
	f := &Flight{
		GUFI:         "FL123",
		Callsign:     "N12345",
		AircraftType: "C172",
		Arrival:      "KHPN",
		Points:       []Point{{Altitude: 1}, {Altitude: 2}, {Altitude: 3}, {Altitude: 4}},
	}

	leg := f.SubFlight("FL123#leg1", 1, LegTouchAndGo, 1, 2)
	assert.Equal(t, "FL123#leg1", leg.GUFI)
	assert.Equal(t, "FL123", leg.SourceGUFI)
	assert.Equal(t, 1, leg.Leg)
	assert.Equal(t, LegTouchAndGo, leg.LegKind)
	assert.Equal(t, "N12345", leg.Callsign)
	require.Len(t, leg.Points, 2)
	assert.Equal(t, 2.0, leg.Points[0].Altitude)
	assert.Equal(t, 3.0, leg.Points[1].Altitude)
}

func TestWithDerivatives(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("turn rate wraps through north", func(t *testing.T) {
		pts := []Point{
			{Time: base, Course: fp(350)},
			{Time: base.Add(10 * time.Second), Course: fp(10)},
		}
		out := WithDerivatives(pts)
		require.NotNil(t, out[1].TurnRate)
		// 350 -> 10 is +20 degrees over 10s
		assert.InDelta(t, 2.0, *out[1].TurnRate, 1e-9)
		assert.Nil(t, out[0].TurnRate)
	})

	t.Run("acceleration", func(t *testing.T) {
		pts := []Point{
			{Time: base, Speed: fp(100)},
			{Time: base.Add(5 * time.Second), Speed: fp(90)},
		}
		out := WithDerivatives(pts)
		require.NotNil(t, out[1].Accel)
		assert.InDelta(t, -2.0, *out[1].Accel, 1e-9)
	})

	t.Run("long gap skipped", func(t *testing.T) {
		pts := []Point{
			{Time: base, Course: fp(100), Speed: fp(100)},
			{Time: base.Add(3 * time.Minute), Course: fp(120), Speed: fp(90)},
		}
		out := WithDerivatives(pts)
		assert.Nil(t, out[1].TurnRate)
		assert.Nil(t, out[1].Accel)
	})

	t.Run("zero or negative dt skipped", func(t *testing.T) {
		pts := []Point{
			{Time: base, Course: fp(100)},
			{Time: base, Course: fp(120)},
		}
		out := WithDerivatives(pts)
		assert.Nil(t, out[1].TurnRate)
	})

	t.Run("input not modified", func(t *testing.T) {
		pts := []Point{
			{Time: base, Course: fp(100)},
			{Time: base.Add(10 * time.Second), Course: fp(110)},
		}
		_ = WithDerivatives(pts)
		assert.Nil(t, pts[1].TurnRate)
	})
}
