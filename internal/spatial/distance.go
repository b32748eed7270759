package spatial

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// EarthRadiusMeters is Earth's mean radius in meters
const EarthRadiusMeters = 6371000.0

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PointDistance calculates the great-circle distance in meters between two
// orb points (lng, lat order)
func PointDistance(a, b orb.Point) float64 {
	return HaversineDistance(a[1], a[0], b[1], b[0])
}

// Distance3D calculates the distance between two points accounting for the
// elevation difference (horizontal haversine plus elevation in quadrature)
func Distance3D(a, b orb.Point, elevA, elevB float64) float64 {
	horizontal := PointDistance(a, b)
	vertical := elevB - elevA
	return math.Sqrt(horizontal*horizontal + vertical*vertical)
}

// LineLength calculates the 3D length in meters of a polyline with
// per-vertex elevations. Elevation is ignored when elevations is nil or
// does not match the vertex count
func LineLength(line orb.LineString, elevations []float64) float64 {
	total := 0.0
	use3D := len(elevations) == len(line)
	for i := 0; i < len(line)-1; i++ {
		if use3D {
			total += Distance3D(line[i], line[i+1], elevations[i], elevations[i+1])
		} else {
			total += PointDistance(line[i], line[i+1])
		}
	}
	return total
}

// ElevationProfile calculates cumulative gain and loss in meters over a
// per-vertex elevation sequence
func ElevationProfile(elevations []float64) (gain, loss float64) {
	for i := 0; i < len(elevations)-1; i++ {
		d := elevations[i+1] - elevations[i]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	return gain, loss
}

// MetersToDegrees converts a distance in meters to angular degrees at the
// given latitude. Longitude shrinks with cos(lat); the returned value is the
// conservative (larger) of the two axes so tolerance circles never under-cover
func MetersToDegrees(meters, lat float64) float64 {
	latDeg := meters / 111320.0
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonDeg := meters / (111320.0 * cosLat)
	return math.Max(latDeg, lonDeg)
}

// WithinRadius reports whether two points lie within toleranceM meters of
// each other
func WithinRadius(a, b orb.Point, toleranceM float64) bool {
	return PointDistance(a, b) <= toleranceM
}

// Midpoint calculates the midpoint between two points
func Midpoint(a, b orb.Point) orb.Point {
	p1 := s2.LatLngFromDegrees(a[1], a[0])
	p2 := s2.LatLngFromDegrees(b[1], b[0])

	mid := s2.Interpolate(0.5, s2.PointFromLatLng(p1), s2.PointFromLatLng(p2))
	midLatLng := s2.LatLngFromPoint(mid)

	return orb.Point{midLatLng.Lng.Degrees(), midLatLng.Lat.Degrees()}
}
