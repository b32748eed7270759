package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantM                  float64
		tolM                   float64
	}{
		{
			name: "same point",
			lat1: 40.0, lon1: -105.3, lat2: 40.0, lon2: -105.3,
			wantM: 0, tolM: 0.001,
		},
		{
			name: "one degree of latitude",
			lat1: 40.0, lon1: -105.3, lat2: 41.0, lon2: -105.3,
			wantM: 111195, tolM: 200,
		},
		{
			name: "boulder to denver",
			lat1: 40.015, lon1: -105.2705, lat2: 39.7392, lon2: -104.9903,
			wantM: 38840, tolM: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantM, got, tt.tolM)
		})
	}
}

func TestDistance3D(t *testing.T) {
	a := orb.Point{-105.3, 40.0}
	b := orb.Point{-105.3, 40.0009} // ~100m north

	flat := Distance3D(a, b, 1000, 1000)
	climbed := Distance3D(a, b, 1000, 1100)

	assert.InDelta(t, 100, flat, 1)
	// 100m horizontal + 100m vertical in quadrature
	assert.InDelta(t, 141.4, climbed, 2)
	assert.Greater(t, climbed, flat)
}

func TestLineLength(t *testing.T) {
	line := orb.LineString{
		{-105.3, 40.0},
		{-105.3, 40.0009},
		{-105.3, 40.0018},
	}

	flat := LineLength(line, []float64{0, 0, 0})
	assert.InDelta(t, 200, flat, 2)

	// Mismatched elevation count falls back to 2D
	fallback := LineLength(line, []float64{0, 0})
	assert.InDelta(t, flat, fallback, 0.01)

	climbed := LineLength(line, []float64{1000, 1100, 1000})
	assert.Greater(t, climbed, flat)
}

func TestElevationProfile(t *testing.T) {
	gain, loss := ElevationProfile([]float64{100, 150, 120, 180})
	assert.InDelta(t, 110, gain, 0.001) // +50 +60
	assert.InDelta(t, 30, loss, 0.001)  // -30

	gain, loss = ElevationProfile(nil)
	assert.Zero(t, gain)
	assert.Zero(t, loss)
}

func TestMetersToDegrees(t *testing.T) {
	atEquator := MetersToDegrees(111320, 0)
	assert.InDelta(t, 1.0, atEquator, 0.01)

	// Longitude degrees widen with latitude, so the conservative conversion
	// grows too
	atBoulder := MetersToDegrees(100, 40.0)
	assert.Greater(t, atBoulder, MetersToDegrees(100, 0))
}

func TestWithinRadius(t *testing.T) {
	a := orb.Point{-105.3, 40.0}
	b := orb.Point{-105.3, 40.00005} // ~5.5m apart

	assert.True(t, WithinRadius(a, b, 10))
	assert.False(t, WithinRadius(a, b, 2))
}

func TestMidpoint(t *testing.T) {
	a := orb.Point{-105.3, 40.0}
	b := orb.Point{-105.3, 40.002}

	mid := Midpoint(a, b)
	assert.InDelta(t, -105.3, mid[0], 1e-9)
	assert.InDelta(t, 40.001, mid[1], 1e-6)
}
