package route

import (
	"fmt"
	"math"
	"sort"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// Scoring weights: distance deviation dominates, elevation deviation refines
const (
	distanceWeight  = 0.7
	elevationWeight = 0.3
)

// Classifier labels candidate shapes and ranks them by similarity to the
// target pattern
type Classifier struct {
	MinScore  float64 // Candidates scoring below this are dropped
	MaxRoutes int     // Survivors are capped to this count per pattern
}

// NewClassifier creates a classifier with the given filter bounds
func NewClassifier(minScore float64, maxRoutes int) *Classifier {
	if maxRoutes <= 0 {
		maxRoutes = 10
	}
	return &Classifier{MinScore: minScore, MaxRoutes: maxRoutes}
}

// ClassifyShape labels the geometric category of a path. Closed paths that
// retrace every edge are out-and-back; closed paths that retrace some but
// not all edges combine a stem with a terminal loop (lollipop); closed paths
// with no retraced edge are loops; everything else is point-to-point
func ClassifyShape(c *models.CandidateRoute) string {
	if len(c.NodePath) < 2 {
		return models.ShapePointToPoint
	}

	closed := c.NodePath[0] == c.NodePath[len(c.NodePath)-1]
	if !closed {
		return models.ShapePointToPoint
	}

	edgeUse := make(map[string]int)
	retraced := 0
	for _, id := range c.EdgeIDs {
		edgeUse[id]++
	}
	for _, n := range edgeUse {
		if n > 1 {
			retraced++
		}
	}

	switch {
	case retraced == len(edgeUse):
		return models.ShapeOutAndBack
	case retraced > 0:
		return models.ShapeLollipop
	default:
		return models.ShapeLoop
	}
}

// Score computes similarity against the target: 1 minus the weighted
// relative deviations of distance and elevation, floored at zero. An exact
// match in both dimensions scores 1
func (cl *Classifier) Score(c *models.CandidateRoute, pattern models.RoutePattern) float64 {
	distDev := math.Abs(c.DistanceKm-pattern.TargetDistanceKm) / pattern.TargetDistanceKm

	if pattern.TargetElevationGainM <= 0 {
		return math.Max(0, 1-distDev)
	}

	elevDev := math.Abs(c.ElevationGainM-pattern.TargetElevationGainM) / pattern.TargetElevationGainM
	return math.Max(0, 1-(distanceWeight*distDev+elevationWeight*elevDev))
}

// Rank classifies, scores, filters and orders candidates for one pattern.
// When the pattern names a shape, only matching candidates survive
func (cl *Classifier) Rank(candidates []*models.CandidateRoute, pattern models.RoutePattern) []*models.CandidateRoute {
	ranked := make([]*models.CandidateRoute, 0, len(candidates))

	for _, c := range candidates {
		c.Shape = ClassifyShape(c)
		if pattern.Shape != "" && c.Shape != pattern.Shape {
			continue
		}
		c.Score = cl.Score(c, pattern)
		if c.Score < cl.MinScore {
			continue
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > cl.MaxRoutes {
		ranked = ranked[:cl.MaxRoutes]
	}
	return ranked
}

// RouteName generates a display name for a candidate from its dominant
// trail and metrics, e.g. "Mesa Trail loop (5.2km, 210m gain)"
func RouteName(c *models.CandidateRoute, g *models.RoutingGraph) string {
	// Pick the trail contributing the most distance
	lengthByTrail := make(map[string]float64)
	nameByTrail := make(map[string]string)
	for _, edgeID := range c.EdgeIDs {
		if e := g.Edges[edgeID]; e != nil {
			lengthByTrail[e.TrailID] += e.LengthM
			nameByTrail[e.TrailID] = e.TrailName
		}
	}

	dominant := ""
	best := -1.0
	for id, l := range lengthByTrail {
		if l > best {
			best = l
			dominant = id
		}
	}

	name := nameByTrail[dominant]
	if name == "" {
		name = "Unnamed trail"
	}

	return fmt.Sprintf("%s %s (%.1fkm, %.0fm gain)", name, c.Shape, c.DistanceKm, c.ElevationGainM)
}
