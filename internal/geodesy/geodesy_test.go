package geodesy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceNM(t *testing.T) {
	t.Run("identical points", func(t *testing.T) {
		d, err := DistanceNM(41.0670, -73.7076, 41.0670, -73.7076)
		require.NoError(t, err)
		assert.Zero(t, d)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d, err := DistanceNM(40.0, -73.7, 41.0, -73.7)
		require.NoError(t, err)
		// One degree of latitude is close to 60nm on the sphere
		assert.InDelta(t, 60.0, d, 0.1)
	})

	t.Run("symmetric", func(t *testing.T) {
		ab, err := DistanceNM(41.0, -73.7, 40.5, -72.9)
		require.NoError(t, err)
		ba, err := DistanceNM(40.5, -72.9, 41.0, -73.7)
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-9)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		_, err := DistanceNM(91.0, 0, 41.0, -73.7)
		assert.ErrorIs(t, err, ErrInvalidCoordinate)

		_, err = DistanceNM(41.0, -73.7, 41.0, 181.0)
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	})
}

func TestBearingDeg(t *testing.T) {
	t.Run("due north", func(t *testing.T) {
		assert.InDelta(t, 0.0, BearingDeg(41.0, -73.7, 42.0, -73.7), 0.01)
	})

	t.Run("due south", func(t *testing.T) {
		assert.InDelta(t, 180.0, BearingDeg(42.0, -73.7, 41.0, -73.7), 0.01)
	})

	t.Run("due east near equator", func(t *testing.T) {
		assert.InDelta(t, 90.0, BearingDeg(0, 0, 0, 1), 0.01)
	})

	t.Run("coincident points", func(t *testing.T) {
		assert.Equal(t, 0.0, BearingDeg(41.0, -73.7, 41.0, -73.7))
	})

	t.Run("normalized to [0,360)", func(t *testing.T) {
		b := BearingDeg(41.0, -73.7, 41.5, -74.5)
		assert.GreaterOrEqual(t, b, 0.0)
		assert.Less(t, b, 360.0)
	})
}

func TestProjectToRunway(t *testing.T) {
	// Runway 18: threshold at 41.0N, approach from the north
	const (
		thrLat  = 41.0
		thrLon  = -73.7
		heading = 180.0
	)

	t.Run("on final two miles out", func(t *testing.T) {
		p, err := ProjectToRunway(41.0+2.0/60.0, thrLon, thrLat, thrLon, heading)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, p.AlongTrackNM, 0.01)
		assert.InDelta(t, 0.0, p.CrossTrackFt, 10.0)
	})

	t.Run("past the threshold is negative along-track", func(t *testing.T) {
		p, err := ProjectToRunway(41.0-1.0/60.0, thrLon, thrLat, thrLon, heading)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, p.AlongTrackNM, 0.01)
	})

	t.Run("west of centerline is right looking inbound", func(t *testing.T) {
		// Looking south on final, west is the pilot's right
		p, err := ProjectToRunway(41.0+1.0/60.0, thrLon-0.01, thrLat, thrLon, heading)
		require.NoError(t, err)
		assert.Positive(t, p.CrossTrackFt)
	})

	t.Run("east of centerline is left looking inbound", func(t *testing.T) {
		p, err := ProjectToRunway(41.0+1.0/60.0, thrLon+0.01, thrLat, thrLon, heading)
		require.NoError(t, err)
		assert.Negative(t, p.CrossTrackFt)
	})

	t.Run("invalid coordinate", func(t *testing.T) {
		_, err := ProjectToRunway(999, 0, thrLat, thrLon, heading)
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	})
}

func TestHeadingDiffDeg(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 350, 20},
		{350, 10, 20},
		{90, 270, 180},
		{160, 165, 5},
		{0, 180, 180},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, HeadingDiffDeg(tt.a, tt.b), 1e-9, "HeadingDiffDeg(%g, %g)", tt.a, tt.b)
	}
}
