package route

import (
	"context"
	"log"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// Adaptive search defaults
const (
	defaultTolerancePercent = 20.0
	defaultMinRouteCount    = 3
	widenFactor             = 1.5
	maxIterations           = 5
)

// AdaptiveController re-runs the search engine with progressively larger
// tolerance until enough routes are found or the bounds are exhausted. A
// fixed tolerance frequently yields nothing on sparse trail networks;
// widening trades route quality for having any recommendation at all
type AdaptiveController struct {
	engine     *Engine
	classifier *Classifier

	MaxDepth            int
	MaxTolerancePercent float64
}

// NewAdaptiveController creates a controller over the given graph
func NewAdaptiveController(g *models.RoutingGraph, classifier *Classifier, maxDepth int, maxTolerancePercent float64) *AdaptiveController {
	if maxTolerancePercent <= 0 {
		maxTolerancePercent = 50
	}
	return &AdaptiveController{
		engine:              NewEngine(g),
		classifier:          classifier,
		MaxDepth:            maxDepth,
		MaxTolerancePercent: maxTolerancePercent,
	}
}

// AdaptiveResult reports the routes found and the tolerance that produced
// them. An empty route set with Exhausted true is a valid outcome, not an
// error
type AdaptiveResult struct {
	Routes               []*models.CandidateRoute `json:"routes"`
	ToleranceUsedPercent float64                  `json:"tolerance_used_percent"`
	Iterations           int                      `json:"iterations"`
	Exhausted            bool                     `json:"exhausted"`
}

// FindRoutes searches with the pattern's tolerance, widening it by half per
// iteration up to the configured maximum. It stops as soon as the minimum
// result count is met, the bounds run out, or ctx is cancelled (returning
// whatever the completed iterations produced)
func (a *AdaptiveController) FindRoutes(ctx context.Context, pattern models.RoutePattern) AdaptiveResult {
	tolerance := pattern.TolerancePercent
	if tolerance <= 0 {
		tolerance = defaultTolerancePercent
	}
	maxTolerance := pattern.MaxTolerancePercent
	if maxTolerance <= 0 || maxTolerance > a.MaxTolerancePercent {
		maxTolerance = a.MaxTolerancePercent
	}
	minCount := pattern.MinRouteCount
	if minCount <= 0 {
		minCount = defaultMinRouteCount
	}

	result := AdaptiveResult{}

	for iter := 0; iter < maxIterations; iter++ {
		if ctx.Err() != nil {
			break
		}

		candidates := a.engine.Search(ctx, SearchParams{
			TargetDistanceKm:     pattern.TargetDistanceKm,
			TargetElevationGainM: pattern.TargetElevationGainM,
			TolerancePercent:     tolerance,
			MaxDepth:             a.MaxDepth,
		})

		result.Routes = a.classifier.Rank(candidates, pattern)
		result.ToleranceUsedPercent = tolerance
		result.Iterations = iter + 1

		if len(result.Routes) >= minCount {
			log.Printf("[AdaptiveSearch] %d routes at tolerance %.0f%% after %d iteration(s)",
				len(result.Routes), tolerance, result.Iterations)
			return result
		}
		if tolerance >= maxTolerance {
			break
		}

		tolerance *= widenFactor
		if tolerance > maxTolerance {
			tolerance = maxTolerance
		}
	}

	result.Exhausted = true
	log.Printf("[AdaptiveSearch] exhausted at tolerance %.0f%% after %d iteration(s): %d routes",
		result.ToleranceUsedPercent, result.Iterations, len(result.Routes))
	return result
}
