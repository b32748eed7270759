package models

import "time"

// Route shape constants
const (
	ShapeLoop         = "loop"
	ShapeOutAndBack   = "out-and-back"
	ShapeLollipop     = "lollipop"
	ShapePointToPoint = "point-to-point"
)

// RoutePattern is a named set of target parameters used to seed route searches
type RoutePattern struct {
	Name                 string  `json:"name"`
	TargetDistanceKm     float64 `json:"target_distance_km" binding:"required,gt=0"`
	TargetElevationGainM float64 `json:"target_elevation_gain_m"`
	TolerancePercent     float64 `json:"tolerance_percent"`
	Shape                string  `json:"shape,omitempty"` // Optional shape preference

	// Adaptive search bounds (0 means use configured defaults)
	MinRouteCount       int     `json:"min_route_count,omitempty"`
	MaxTolerancePercent float64 `json:"max_tolerance_percent,omitempty"`
}

// BuiltinPatterns is the fixed pattern catalogue offered alongside ad-hoc
// user-supplied targets
var BuiltinPatterns = []RoutePattern{
	{Name: "Short Loop", TargetDistanceKm: 5, TargetElevationGainM: 200, TolerancePercent: 20, Shape: ShapeLoop},
	{Name: "Medium Loop", TargetDistanceKm: 10, TargetElevationGainM: 400, TolerancePercent: 20, Shape: ShapeLoop},
	{Name: "Long Loop", TargetDistanceKm: 20, TargetElevationGainM: 800, TolerancePercent: 20, Shape: ShapeLoop},
	{Name: "Short Out-and-Back", TargetDistanceKm: 5, TargetElevationGainM: 200, TolerancePercent: 20, Shape: ShapeOutAndBack},
	{Name: "Medium Out-and-Back", TargetDistanceKm: 10, TargetElevationGainM: 400, TolerancePercent: 20, Shape: ShapeOutAndBack},
	{Name: "Long Point-to-Point", TargetDistanceKm: 15, TargetElevationGainM: 600, TolerancePercent: 25, Shape: ShapePointToPoint},
}

// CandidateRoute is a path over the routing graph produced by the search
// engine. Candidates are ephemeral; accepted ones become recommendations
type CandidateRoute struct {
	NodePath []string `json:"node_path"`
	EdgeIDs  []string `json:"edge_ids"`

	DistanceKm     float64 `json:"distance_km"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	ElevationLossM float64 `json:"elevation_loss_m"`

	Shape    string   `json:"shape"`
	TrailIDs []string `json:"trail_ids"` // Unique trails touched
	Score    float64  `json:"score"`
}

// TrailCount returns the number of distinct trails the route touches
func (c *CandidateRoute) TrailCount() int {
	return len(c.TrailIDs)
}

// RouteRecommendation is a persisted, scored route for a target pattern
type RouteRecommendation struct {
	RouteUUID string `json:"route_uuid" db:"route_uuid"`
	Region    string `json:"region" db:"region"`

	// Input target parameters
	InputLengthKm         float64 `json:"input_length_km" db:"input_length_km"`
	InputElevationGainM   float64 `json:"input_elevation_gain_m" db:"input_elevation_gain_m"`
	InputTolerancePercent float64 `json:"input_tolerance_percent" db:"input_tolerance_percent"`

	// Recommended route metrics
	RecommendedLengthKm       float64 `json:"recommended_length_km" db:"recommended_length_km"`
	RecommendedElevationGainM float64 `json:"recommended_elevation_gain_m" db:"recommended_elevation_gain_m"`

	RouteShape string  `json:"route_shape" db:"route_shape"`
	RouteName  string  `json:"route_name" db:"route_name"`
	TrailCount int     `json:"trail_count" db:"trail_count"`
	RouteScore float64 `json:"route_score" db:"route_score"`

	// RoutePath is the GeoJSON MultiLineString of the route geometry;
	// RouteEdges and RouteNodes are JSON-encoded ordered id lists
	RoutePath  string `json:"route_path" db:"route_path"`
	RouteEdges string `json:"route_edges" db:"route_edges"`
	RouteNodes string `json:"route_nodes" db:"route_nodes"`

	// RequestHash fingerprints the target parameters for request dedup
	RequestHash string    `json:"request_hash" db:"request_hash"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	UsageCount  int       `json:"usage_count" db:"usage_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RecommendationFilter represents filter parameters for querying stored
// recommendations
type RecommendationFilter struct {
	Shape    string  `form:"shape"`
	MinScore float64 `form:"minScore"`
	Limit    int     `form:"limit"`
}
