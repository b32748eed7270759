package models

import (
	"time"

	"github.com/paulmach/orb"
)

// Trail represents a geo-referenced trail curve with per-vertex elevation
type Trail struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Region string `json:"region" db:"region"`

	// Geometry is the 2D polyline (lng/lat); Elevations carries the third
	// dimension, one entry per vertex
	Geometry   orb.LineString `json:"geometry" db:"geometry"`
	Elevations []float64      `json:"elevations" db:"elevations"`

	// Derived metrics
	LengthM        float64 `json:"length_m" db:"length_m"`
	ElevationGainM float64 `json:"elevation_gain_m" db:"elevation_gain_m"`
	ElevationLossM float64 `json:"elevation_loss_m" db:"elevation_loss_m"`
	MaxElevationM  float64 `json:"max_elevation_m,omitempty" db:"max_elevation_m"`
	MinElevationM  float64 `json:"min_elevation_m,omitempty" db:"min_elevation_m"`
	AvgElevationM  float64 `json:"avg_elevation_m,omitempty" db:"avg_elevation_m"`

	// Descriptive attributes
	Surface    string `json:"surface,omitempty" db:"surface"`
	TrailType  string `json:"trail_type,omitempty" db:"trail_type"`
	Difficulty string `json:"difficulty,omitempty" db:"difficulty"`

	// Bounding box
	MinLon float64 `json:"min_lon,omitempty" db:"min_lon"`
	MinLat float64 `json:"min_lat,omitempty" db:"min_lat"`
	MaxLon float64 `json:"max_lon,omitempty" db:"max_lon"`
	MaxLat float64 `json:"max_lat,omitempty" db:"max_lat"`

	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Valid reports whether the trail carries a usable 3D polyline:
// at least two vertices and an elevation for every vertex
func (t *Trail) Valid() bool {
	return len(t.Geometry) >= 2 && len(t.Elevations) == len(t.Geometry)
}

// Bound returns the geometry bounding box
func (t *Trail) Bound() orb.Bound {
	return t.Geometry.Bound()
}

// StartPoint returns the first vertex of the polyline
func (t *Trail) StartPoint() orb.Point {
	return t.Geometry[0]
}

// EndPoint returns the last vertex of the polyline
func (t *Trail) EndPoint() orb.Point {
	return t.Geometry[len(t.Geometry)-1]
}

// TrailSegment is one piece of a trail after splitting at intersections.
// Segments carry a fresh identity and recomputed metrics; descriptive
// attributes are inherited from the parent trail
type TrailSegment struct {
	ID            string `json:"id" db:"id"`
	ParentTrailID string `json:"parent_trail_id" db:"parent_trail_id"`
	SeqNo         int    `json:"seq_no" db:"seq_no"` // Order within the parent trail
	Name          string `json:"name" db:"name"`
	Region        string `json:"region" db:"region"`

	Geometry   orb.LineString `json:"geometry" db:"geometry"`
	Elevations []float64      `json:"elevations" db:"elevations"`

	LengthM        float64 `json:"length_m" db:"length_m"`
	ElevationGainM float64 `json:"elevation_gain_m" db:"elevation_gain_m"`
	ElevationLossM float64 `json:"elevation_loss_m" db:"elevation_loss_m"`

	Surface    string `json:"surface,omitempty" db:"surface"`
	TrailType  string `json:"trail_type,omitempty" db:"trail_type"`
	Difficulty string `json:"difficulty,omitempty" db:"difficulty"`

	MinLon float64 `json:"min_lon,omitempty" db:"min_lon"`
	MinLat float64 `json:"min_lat,omitempty" db:"min_lat"`
	MaxLon float64 `json:"max_lon,omitempty" db:"max_lon"`
	MaxLat float64 `json:"max_lat,omitempty" db:"max_lat"`
}

// Valid reports whether the segment satisfies the same invariant as a Trail
func (s *TrailSegment) Valid() bool {
	return len(s.Geometry) >= 2 && len(s.Elevations) == len(s.Geometry)
}

// StartPoint returns the first vertex of the segment
func (s *TrailSegment) StartPoint() orb.Point {
	return s.Geometry[0]
}

// EndPoint returns the last vertex of the segment
func (s *TrailSegment) EndPoint() orb.Point {
	return s.Geometry[len(s.Geometry)-1]
}

// TrailInput is the wire form of a trail submitted to a graph build.
// Coordinates are [lng, lat, elevation] triples
type TrailInput struct {
	Name        string      `json:"name" binding:"required"`
	Surface     string      `json:"surface"`
	TrailType   string      `json:"trail_type"`
	Difficulty  string      `json:"difficulty"`
	Coordinates [][]float64 `json:"coordinates" binding:"required,min=2"`
}

// ToTrail converts the wire form into a Trail with geometry and elevations
// separated. Metrics are left for the caller to derive
func (in *TrailInput) ToTrail(region string) *Trail {
	geometry := make(orb.LineString, 0, len(in.Coordinates))
	elevations := make([]float64, 0, len(in.Coordinates))
	for _, c := range in.Coordinates {
		if len(c) < 2 {
			continue
		}
		geometry = append(geometry, orb.Point{c[0], c[1]})
		if len(c) >= 3 {
			elevations = append(elevations, c[2])
		} else {
			elevations = append(elevations, 0)
		}
	}

	return &Trail{
		Name:       in.Name,
		Region:     region,
		Geometry:   geometry,
		Elevations: elevations,
		Surface:    in.Surface,
		TrailType:  in.TrailType,
		Difficulty: in.Difficulty,
	}
}

// TrailFilter represents filter parameters for querying trails
type TrailFilter struct {
	Region string  `form:"region"`
	MinLon float64 `form:"minLon"`
	MinLat float64 `form:"minLat"`
	MaxLon float64 `form:"maxLon"`
	MaxLat float64 `form:"maxLat"`
	Limit  int     `form:"limit"`
}
