package graph

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// newTrail builds a test trail with flat elevations and derived length
func newTrail(id, name string, geometry orb.LineString, elevations []float64) *models.Trail {
	if elevations == nil {
		elevations = make([]float64, len(geometry))
	}
	t := &models.Trail{
		ID:         id,
		Name:       name,
		Region:     "test",
		Geometry:   geometry,
		Elevations: elevations,
	}
	for i := 0; i < len(geometry)-1; i++ {
		dx := (geometry[i+1][0] - geometry[i][0]) * 111320
		dy := (geometry[i+1][1] - geometry[i][1]) * 111320
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		t.LengthM += dx + dy // Crude but monotone; only gates the minimum length
	}
	return t
}

// crossingTrails is an X: two ~2km trails crossing at the origin
func crossingTrails() []*models.Trail {
	return []*models.Trail{
		newTrail("trail-a", "East West Trail", orb.LineString{{-0.009, 0}, {0.009, 0}}, nil),
		newTrail("trail-b", "North South Trail", orb.LineString{{0, -0.009}, {0, 0.009}}, nil),
	}
}

func buildPipeline(t *testing.T, trails []*models.Trail) (*models.RoutingGraph, []models.IntersectionPoint, []*models.TrailSegment) {
	t.Helper()

	detector := NewDetector(2.0, 10.0, 5.0)
	points, _ := detector.Detect(trails)

	splitter := NewSplitter(2.0)
	segments, _ := splitter.Split(trails, points)

	builder := NewBuilder(2.0, 10.0)
	g, _ := builder.Build(segments, points)

	return g, points, segments
}

func TestDetectCrossing(t *testing.T) {
	detector := NewDetector(2.0, 10.0, 5.0)
	points, result := detector.Detect(crossingTrails())

	require.Len(t, points, 1)
	assert.Equal(t, models.NodeTypeIntersection, points[0].NodeType)
	assert.InDelta(t, 0, points[0].Point[0], 1e-9)
	assert.InDelta(t, 0, points[0].Point[1], 1e-9)
	assert.ElementsMatch(t, []string{"trail-a", "trail-b"}, points[0].TrailIDs)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Failed)
}

func TestDetectSkipsShortAndInvalidTrails(t *testing.T) {
	trails := []*models.Trail{
		newTrail("short", "Stub", orb.LineString{{0, 0}, {0.00001, 0}}, nil),
		{ID: "broken", Name: "Broken", Geometry: orb.LineString{{0, 0}}, Elevations: []float64{0}},
	}

	detector := NewDetector(2.0, 10.0, 5.0)
	points, result := detector.Detect(trails)

	assert.Empty(t, points)
	assert.Equal(t, 2, result.Failed)
}

func TestDetectEndpointNearMiss(t *testing.T) {
	// Two trails whose endpoints stop ~5.5m short of each other
	trails := []*models.Trail{
		newTrail("trail-a", "West Leg", orb.LineString{{-0.009, 0}, {0, 0}}, nil),
		newTrail("trail-b", "East Leg", orb.LineString{{0.00005, 0}, {0.009, 0}}, nil),
	}

	detector := NewDetector(2.0, 10.0, 5.0)
	points, _ := detector.Detect(trails)

	require.Len(t, points, 1)
	assert.Equal(t, models.NodeTypeNearMiss, points[0].NodeType)
	assert.InDelta(t, 5.5, points[0].DistanceM, 0.5)
}

func TestSplitAtCrossing(t *testing.T) {
	trails := crossingTrails()
	detector := NewDetector(2.0, 10.0, 5.0)
	points, _ := detector.Detect(trails)

	splitter := NewSplitter(2.0)
	segments, result := splitter.Split(trails, points)

	// Each trail is cut once at the center
	require.Len(t, segments, 4)
	assert.Equal(t, 2, result.Succeeded)

	byParent := make(map[string]int)
	for _, s := range segments {
		byParent[s.ParentTrailID]++
		assert.True(t, s.Valid())
		assert.Greater(t, s.LengthM, 900.0)
	}
	assert.Equal(t, 2, byParent["trail-a"])
	assert.Equal(t, 2, byParent["trail-b"])
}

func TestSplitWithoutIntersectionsPassesThrough(t *testing.T) {
	trails := []*models.Trail{
		newTrail("solo", "Lone Trail", orb.LineString{{0, 0}, {0.009, 0}}, nil),
	}

	splitter := NewSplitter(2.0)
	segments, _ := splitter.Split(trails, nil)

	require.Len(t, segments, 1)
	assert.Equal(t, "solo", segments[0].ParentTrailID)
	assert.Equal(t, trails[0].Geometry, segments[0].Geometry)
}

func TestBuildGraphFromCrossing(t *testing.T) {
	g, _, _ := buildPipeline(t, crossingTrails())

	// One center intersection plus four arm endpoints
	require.Len(t, g.Nodes, 5)
	require.Len(t, g.Edges, 4)

	intersections := 0
	endpoints := 0
	for id, n := range g.Nodes {
		switch n.NodeType {
		case models.NodeTypeIntersection:
			intersections++
			assert.Equal(t, 4, g.Degree(id))
			assert.ElementsMatch(t, []string{"trail-a", "trail-b"}, n.ConnectedTrails)
		case models.NodeTypeEndpoint:
			endpoints++
			assert.Equal(t, 1, g.Degree(id))
		}
	}
	assert.Equal(t, 1, intersections)
	assert.Equal(t, 4, endpoints)
}

func TestBuildGraphTJunction(t *testing.T) {
	trails := []*models.Trail{
		newTrail("trail-a", "Main Trail", orb.LineString{{-0.009, 0}, {0.009, 0}}, nil),
		newTrail("trail-b", "Spur Trail", orb.LineString{{0, 0}, {0, 0.009}}, nil),
	}

	g, points, segments := buildPipeline(t, trails)

	require.Len(t, points, 1)
	// The spur is cut at its own endpoint, so only the main trail splits
	require.Len(t, segments, 3)

	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Edges, 3)

	var center *models.RoutingNode
	for id, n := range g.Nodes {
		if n.NodeType == models.NodeTypeIntersection {
			center = n
			assert.Equal(t, 3, g.Degree(id))
		}
	}
	require.NotNil(t, center)
	assert.ElementsMatch(t, []string{"trail-a", "trail-b"}, center.ConnectedTrails)
}

func TestBuildGraphBridgesNearMiss(t *testing.T) {
	// Endpoints ~5.5m apart: too far for node clustering alone, joined
	// through the near-miss point's widened cluster radius
	trails := []*models.Trail{
		newTrail("trail-a", "West Leg", orb.LineString{{-0.009, 0}, {0, 0}}, nil),
		newTrail("trail-b", "East Leg", orb.LineString{{0.00005, 0}, {0.009, 0}}, nil),
	}

	g, _, _ := buildPipeline(t, trails)

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)

	joined := 0
	for id, n := range g.Nodes {
		if g.Degree(id) == 2 {
			joined++
			assert.Equal(t, models.NodeTypeIntersection, n.NodeType)
		}
	}
	assert.Equal(t, 1, joined)
}

func TestCleanupOrphans(t *testing.T) {
	g := models.NewRoutingGraph()
	g.AddNode(&models.RoutingNode{ID: "n1", NodeType: models.NodeTypeEndpoint})
	g.AddNode(&models.RoutingNode{ID: "n2", NodeType: models.NodeTypeEndpoint})
	g.AddNode(&models.RoutingNode{ID: "lonely", NodeType: models.NodeTypeEndpoint})
	g.AddEdge(&models.RoutingEdge{ID: "e1", FromNodeID: "n1", ToNodeID: "n2"})
	g.AddEdge(&models.RoutingEdge{ID: "dangling", FromNodeID: "n1", ToNodeID: "ghost"})

	b := NewBuilder(2.0, 10.0)
	removedNodes, removedEdges := b.cleanupOrphans(g)

	assert.Equal(t, 1, removedEdges)
	assert.Equal(t, 1, removedNodes)
	assert.Contains(t, g.Edges, "e1")
	assert.NotContains(t, g.Edges, "dangling")
	assert.NotContains(t, g.Nodes, "lonely")
}

func TestValidateHealthyGraph(t *testing.T) {
	g, _, _ := buildPipeline(t, crossingTrails())

	report := NewValidator().Validate(g)

	assert.False(t, report.HasFailures())
	assert.Zero(t, report.WarnCount())
}

func TestValidateEmptyGraph(t *testing.T) {
	report := NewValidator().Validate(models.NewRoutingGraph())

	assert.True(t, report.HasFailures())
}

func TestValidateDisconnectedComponents(t *testing.T) {
	// Two X crossings ~20km apart form two disjoint networks
	far := crossingTrails()
	for _, tr := range crossingTrails() {
		shifted := make(orb.LineString, len(tr.Geometry))
		for i, p := range tr.Geometry {
			shifted[i] = orb.Point{p[0] + 0.2, p[1]}
		}
		far = append(far, newTrail(tr.ID+"-far", tr.Name+" Far", shifted, nil))
	}

	g, _, _ := buildPipeline(t, far)
	require.Len(t, g.Nodes, 10)

	report := NewValidator().Validate(g)
	assert.False(t, report.HasFailures())

	found := false
	for _, c := range report.Checks {
		if c.Name == "connected_components" {
			found = true
			assert.Equal(t, models.StatusWarn, c.Status)
			assert.Equal(t, 2, c.Count)
		}
	}
	assert.True(t, found)
}

func TestValidateDanglingEdges(t *testing.T) {
	g := models.NewRoutingGraph()
	g.AddNode(&models.RoutingNode{ID: "n1", NodeType: models.NodeTypeEndpoint})
	g.AddEdge(&models.RoutingEdge{ID: "e1", FromNodeID: "n1", ToNodeID: "missing"})

	report := NewValidator().Validate(g)

	assert.True(t, report.HasFailures())
	for _, c := range report.Checks {
		if c.Name == "dangling_edges" {
			assert.Equal(t, models.StatusFail, c.Status)
			assert.Equal(t, 1, c.Count)
		}
	}
}
