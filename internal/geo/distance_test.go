package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	helsinki := Point{Lat: 60.1699, Long: 24.9384}
	espoo := Point{Lat: 60.2055, Long: 24.6559}

	t.Run("identity", func(t *testing.T) {
		for _, p := range []Point{helsinki, espoo, {0, 0}, {-89.9, 179.9}} {
			assert.Equal(t, 0, DistanceMeters(p, p))
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		assert.Equal(t, DistanceMeters(helsinki, espoo), DistanceMeters(espoo, helsinki))
	})

	t.Run("one_degree_of_latitude", func(t *testing.T) {
		assert.Equal(t, 111319, DistanceMeters(Point{0, 0}, Point{1, 0}))
	})

	t.Run("monotonic_along_meridian", func(t *testing.T) {
		origin := Point{Lat: 10, Long: 24}
		prev := 0
		for lat := 10.5; lat <= 80; lat += 5 {
			d := DistanceMeters(origin, Point{Lat: lat, Long: 24})
			assert.Greater(t, d, prev)
			prev = d
		}
	})

	t.Run("nearby_points", func(t *testing.T) {
		d := DistanceMeters(Point{60.0, 24.0}, Point{60.1, 24.1})
		assert.InDelta(t, 12400, d, 200)
	})
}

func TestNewPoint(t *testing.T) {
	t.Run("parses_strings", func(t *testing.T) {
		p, err := NewPoint("60.19", "24.94")
		require.NoError(t, err)
		assert.Equal(t, Point{Lat: 60.19, Long: 24.94}, p)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewPoint(nil, 24.0)
		var ic *InvalidCoordinateError
		require.True(t, errors.As(err, &ic))
		assert.Equal(t, "lat", ic.Field)
	})

	t.Run("malformed_and_out_of_range", func(t *testing.T) {
		_, err := NewPoint(60.0, "east")
		require.Error(t, err)

		_, err = NewPoint(91.0, 0.0)
		require.Error(t, err)

		_, err = NewPoint(0.0, -180.5)
		require.Error(t, err)
	})
}
