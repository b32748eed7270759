package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

func TestClassifyShape(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges []string
		want  string
	}{
		{
			name:  "open path is point-to-point",
			nodes: []string{"a", "b", "c"},
			edges: []string{"e1", "e2"},
			want:  models.ShapePointToPoint,
		},
		{
			name:  "closed with no retraced edge is a loop",
			nodes: []string{"a", "b", "c", "a"},
			edges: []string{"e1", "e2", "e3"},
			want:  models.ShapeLoop,
		},
		{
			name:  "closed with every edge retraced is out-and-back",
			nodes: []string{"a", "b", "c", "b", "a"},
			edges: []string{"e1", "e2", "e2", "e1"},
			want:  models.ShapeOutAndBack,
		},
		{
			name:  "closed with a retraced stem is a lollipop",
			nodes: []string{"a", "b", "c", "d", "b", "a"},
			edges: []string{"stem", "e1", "e2", "e3", "stem"},
			want:  models.ShapeLollipop,
		},
		{
			name:  "degenerate single node",
			nodes: []string{"a"},
			want:  models.ShapePointToPoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.CandidateRoute{NodePath: tt.nodes, EdgeIDs: tt.edges}
			assert.Equal(t, tt.want, ClassifyShape(c))
		})
	}
}

func TestScore(t *testing.T) {
	cl := NewClassifier(0, 10)
	pattern := models.RoutePattern{TargetDistanceKm: 10, TargetElevationGainM: 400}

	exact := &models.CandidateRoute{DistanceKm: 10, ElevationGainM: 400}
	assert.InDelta(t, 1.0, cl.Score(exact, pattern), 1e-9)

	// 10% off on distance only: 1 - 0.7*0.1
	distOff := &models.CandidateRoute{DistanceKm: 11, ElevationGainM: 400}
	assert.InDelta(t, 0.93, cl.Score(distOff, pattern), 1e-9)

	// 10% off on elevation only: 1 - 0.3*0.1
	elevOff := &models.CandidateRoute{DistanceKm: 10, ElevationGainM: 440}
	assert.InDelta(t, 0.97, cl.Score(elevOff, pattern), 1e-9)

	// Deviation is symmetric
	under := &models.CandidateRoute{DistanceKm: 9, ElevationGainM: 400}
	assert.InDelta(t, 0.93, cl.Score(under, pattern), 1e-9)

	// Wildly off floors at zero
	hopeless := &models.CandidateRoute{DistanceKm: 50, ElevationGainM: 4000}
	assert.Zero(t, cl.Score(hopeless, pattern))
}

func TestScoreDistanceOnly(t *testing.T) {
	cl := NewClassifier(0, 10)
	pattern := models.RoutePattern{TargetDistanceKm: 10}

	// With no elevation target the gain contributes nothing
	c := &models.CandidateRoute{DistanceKm: 10, ElevationGainM: 9999}
	assert.InDelta(t, 1.0, cl.Score(c, pattern), 1e-9)

	c = &models.CandidateRoute{DistanceKm: 12}
	assert.InDelta(t, 0.8, cl.Score(c, pattern), 1e-9)
}

func TestRank(t *testing.T) {
	cl := NewClassifier(0.5, 2)
	pattern := models.RoutePattern{TargetDistanceKm: 10, TargetElevationGainM: 400, Shape: models.ShapeLoop}

	loop := func(dist, gain float64) *models.CandidateRoute {
		return &models.CandidateRoute{
			NodePath:       []string{"a", "b", "c", "a"},
			EdgeIDs:        []string{"e1", "e2", "e3"},
			DistanceKm:     dist,
			ElevationGainM: gain,
		}
	}

	candidates := []*models.CandidateRoute{
		loop(10.5, 410),
		{NodePath: []string{"a", "b"}, EdgeIDs: []string{"e1"}, DistanceKm: 10, ElevationGainM: 400}, // Wrong shape
		loop(10, 400),
		loop(30, 1500), // Below minimum score
		loop(11, 450),
	}

	ranked := cl.Rank(candidates, pattern)

	// Wrong shape and low score drop out, the cap keeps the best two
	require.Len(t, ranked, 2)
	assert.InDelta(t, 10, ranked[0].DistanceKm, 1e-9)
	assert.GreaterOrEqual(t, ranked[0].Score, ranked[1].Score)
	for _, c := range ranked {
		assert.Equal(t, models.ShapeLoop, c.Shape)
	}
}

func TestRankWithoutShapePreference(t *testing.T) {
	cl := NewClassifier(0, 10)
	pattern := models.RoutePattern{TargetDistanceKm: 10}

	candidates := []*models.CandidateRoute{
		{NodePath: []string{"a", "b"}, EdgeIDs: []string{"e1"}, DistanceKm: 10},
		{NodePath: []string{"a", "b", "a"}, EdgeIDs: []string{"e1", "e2"}, DistanceKm: 10},
	}

	ranked := cl.Rank(candidates, pattern)
	assert.Len(t, ranked, 2)
}

func TestRouteName(t *testing.T) {
	g := models.NewRoutingGraph()
	g.AddEdge(&models.RoutingEdge{ID: "e1", FromNodeID: "a", ToNodeID: "b", TrailID: "t1", TrailName: "Mesa Trail", LengthM: 3000})
	g.AddEdge(&models.RoutingEdge{ID: "e2", FromNodeID: "b", ToNodeID: "c", TrailID: "t2", TrailName: "Spur", LengthM: 500})

	c := &models.CandidateRoute{
		NodePath:       []string{"a", "b", "c", "a"},
		EdgeIDs:        []string{"e1", "e2"},
		Shape:          models.ShapeLoop,
		DistanceKm:     3.5,
		ElevationGainM: 210,
	}

	name := RouteName(c, g)
	assert.Equal(t, "Mesa Trail loop (3.5km, 210m gain)", name)
}

func TestRouteNameUnknownTrail(t *testing.T) {
	g := models.NewRoutingGraph()
	c := &models.CandidateRoute{
		NodePath:   []string{"a", "b"},
		EdgeIDs:    []string{"ghost"},
		Shape:      models.ShapePointToPoint,
		DistanceKm: 1.2,
	}

	name := RouteName(c, g)
	assert.Contains(t, name, "Unnamed trail")
}
