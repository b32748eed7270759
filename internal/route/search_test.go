package route

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// squareGraph is a 4km loop: four nodes connected in a cycle, 1km per edge
func squareGraph() *models.RoutingGraph {
	g := models.NewRoutingGraph()
	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		g.AddNode(&models.RoutingNode{ID: id, NodeType: models.NodeTypeIntersection})
	}
	edges := []struct {
		id, from, to string
		gain, loss   float64
	}{
		{"e1", "n1", "n2", 50, 0},
		{"e2", "n2", "n3", 0, 30},
		{"e3", "n3", "n4", 20, 0},
		{"e4", "n4", "n1", 0, 40},
	}
	for _, e := range edges {
		g.AddEdge(&models.RoutingEdge{
			ID: e.id, FromNodeID: e.from, ToNodeID: e.to,
			TrailID: "trail-" + e.id, TrailName: "Trail " + e.id,
			LengthM: 1000, ElevationGainM: e.gain, ElevationLossM: e.loss,
		})
	}
	return g
}

// lineGraph is an open 2km path: three nodes in a row, 1km per edge
func lineGraph() *models.RoutingGraph {
	g := models.NewRoutingGraph()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(&models.RoutingNode{ID: id, NodeType: models.NodeTypeEndpoint})
	}
	g.AddEdge(&models.RoutingEdge{
		ID: "ab", FromNodeID: "a", ToNodeID: "b",
		TrailID: "trail-1", TrailName: "Ridge Trail",
		LengthM: 1000, ElevationGainM: 80, ElevationLossM: 10,
	})
	g.AddEdge(&models.RoutingEdge{
		ID: "bc", FromNodeID: "b", ToNodeID: "c",
		TrailID: "trail-1", TrailName: "Ridge Trail",
		LengthM: 1000, ElevationGainM: 60, ElevationLossM: 20,
	})
	return g
}

func TestSearchFindsLoop(t *testing.T) {
	engine := NewEngine(squareGraph())

	candidates := engine.Search(context.Background(), SearchParams{
		TargetDistanceKm: 4,
		TolerancePercent: 10,
		MaxDepth:         8,
	})

	// The square is one loop; rotations and reversals must collapse
	var loops []*models.CandidateRoute
	for _, c := range candidates {
		if ClassifyShape(c) == models.ShapeLoop {
			loops = append(loops, c)
		}
	}
	require.Len(t, loops, 1)

	loop := loops[0]
	assert.InDelta(t, 4.0, loop.DistanceKm, 1e-9)
	assert.Len(t, loop.EdgeIDs, 4)
	assert.Len(t, loop.TrailIDs, 4)
}

func TestSearchRespectsToleranceBand(t *testing.T) {
	engine := NewEngine(squareGraph())

	// Band is 3.6 to 4.4km; every accepted candidate must sit inside it
	candidates := engine.Search(context.Background(), SearchParams{
		TargetDistanceKm: 4,
		TolerancePercent: 10,
		MaxDepth:         8,
	})
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.DistanceKm, 3.6)
		assert.LessOrEqual(t, c.DistanceKm, 4.4)
	}

	// An unreachable band yields nothing
	none := engine.Search(context.Background(), SearchParams{
		TargetDistanceKm: 100,
		TolerancePercent: 10,
		MaxDepth:         8,
	})
	assert.Empty(t, none)
}

func TestSearchNeverReusesEdges(t *testing.T) {
	engine := NewEngine(squareGraph())

	candidates := engine.Search(context.Background(), SearchParams{
		TargetDistanceKm: 3,
		TolerancePercent: 50,
		MaxDepth:         8,
	})

	for _, c := range candidates {
		// Out-and-back doubling legitimately walks each edge twice; beyond
		// that no edge may repeat
		seen := make(map[string]int)
		for _, id := range c.EdgeIDs {
			seen[id]++
			assert.LessOrEqual(t, seen[id], 2)
		}
	}
}

func TestSearchGeneratesOutAndBack(t *testing.T) {
	engine := NewEngine(lineGraph())

	// Walking a-b-c and back: 4km, gain 140 out plus 30 returning
	candidates := engine.Search(context.Background(), SearchParams{
		TargetDistanceKm:     4,
		TargetElevationGainM: 170,
		TolerancePercent:     10,
		MaxDepth:             8,
	})

	require.NotEmpty(t, candidates)
	found := false
	for _, c := range candidates {
		if len(c.NodePath) == 5 && c.NodePath[0] == c.NodePath[4] {
			found = true
			assert.InDelta(t, 4.0, c.DistanceKm, 1e-9)
			assert.InDelta(t, 170, c.ElevationGainM, 1e-9)
			assert.Equal(t, models.ShapeOutAndBack, ClassifyShape(c))
		}
	}
	assert.True(t, found, "expected the doubled a-b-c-b-a candidate")
}

func TestSearchElevationBand(t *testing.T) {
	engine := NewEngine(lineGraph())

	// Distance fits but the gain target is far beyond what the path offers
	candidates := engine.Search(context.Background(), SearchParams{
		TargetDistanceKm:     2,
		TargetElevationGainM: 2000,
		TolerancePercent:     10,
		MaxDepth:             8,
	})
	assert.Empty(t, candidates)

	// A zero gain target disables the elevation band
	candidates = engine.Search(context.Background(), SearchParams{
		TargetDistanceKm:     2,
		TargetElevationGainM: 0,
		TolerancePercent:     10,
		MaxDepth:             8,
	})
	assert.NotEmpty(t, candidates)
}

func TestSearchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(squareGraph())
	candidates := engine.Search(ctx, SearchParams{
		TargetDistanceKm: 4,
		TolerancePercent: 10,
		MaxDepth:         8,
	})

	assert.Empty(t, candidates)
}

func TestAdaptiveWidensTolerance(t *testing.T) {
	g := squareGraph()
	classifier := NewClassifier(0, 10)
	controller := NewAdaptiveController(g, classifier, 8, 50)

	// At 5% nothing fits a 3.5km target; widening reaches the 4km loop
	result := controller.FindRoutes(context.Background(), models.RoutePattern{
		TargetDistanceKm: 3.5,
		TolerancePercent: 5,
		MinRouteCount:    1,
		Shape:            models.ShapeLoop,
	})

	require.NotEmpty(t, result.Routes)
	assert.Greater(t, result.ToleranceUsedPercent, 5.0)
	assert.Greater(t, result.Iterations, 1)
	assert.False(t, result.Exhausted)
}

func TestAdaptiveExhaustsOnImpossiblePattern(t *testing.T) {
	// A line has no loops at any tolerance
	g := lineGraph()
	classifier := NewClassifier(0, 10)
	controller := NewAdaptiveController(g, classifier, 8, 50)

	result := controller.FindRoutes(context.Background(), models.RoutePattern{
		TargetDistanceKm: 2,
		TolerancePercent: 20,
		Shape:            models.ShapeLoop,
	})

	assert.Empty(t, result.Routes)
	assert.True(t, result.Exhausted)
	assert.InDelta(t, 50, result.ToleranceUsedPercent, 1e-9)
}
