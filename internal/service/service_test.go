package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline/trailgraph-backend-go/internal/config"
	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

func testConfig(t *testing.T) (*config.Config, *database.Manager) {
	t.Helper()
	cfg := &config.Config{
		DataDir:             filepath.Join(t.TempDir(), "workspaces"),
		NodeToleranceM:      2.0,
		IntersectToleranceM: 2.0,
		NearMissToleranceM:  10.0,
		MinTrailLengthM:     5.0,
		MaxSearchDepth:      8,
		MaxTolerancePercent: 50.0,
		MinRouteScore:       0.3,
		MaxRoutesPerPattern: 10,
		KeepWorkspaces:      3,
	}
	manager, err := database.NewManager(cfg.DataDir, cfg.KeepWorkspaces)
	require.NoError(t, err)
	return cfg, manager
}

// crossingInputs is an X: two ~2km trails crossing at the origin, flat
func crossingInputs() []models.TrailInput {
	return []models.TrailInput{
		{
			Name:        "East West Trail",
			Coordinates: [][]float64{{-0.009, 0, 100}, {0.009, 0, 100}},
		},
		{
			Name:        "North South Trail",
			Coordinates: [][]float64{{0, -0.009, 100}, {0, 0.009, 100}},
		},
	}
}

func TestBuildGraphEndToEnd(t *testing.T) {
	cfg, manager := testConfig(t)
	svc := NewGraphService(manager, cfg)
	ctx := context.Background()

	report, err := svc.BuildGraph(ctx, "testland", crossingInputs())
	require.NoError(t, err)

	assert.True(t, report.Committed)
	assert.Equal(t, 5, report.NodeCount)
	assert.Equal(t, 4, report.EdgeCount)
	assert.False(t, report.Validation.HasFailures())
	require.Len(t, report.Stages, 4)
	assert.Equal(t, "ingest_trails", report.Stages[0].Stage)

	summary, err := svc.GetGraphSummary(ctx, "testland")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.NodeCount)
	assert.Equal(t, 4, summary.EdgeCount)

	detail, err := svc.GetGraph(ctx, "testland")
	require.NoError(t, err)
	assert.Len(t, detail.Nodes, 5)
	assert.Len(t, detail.Edges, 4)

	validation, err := svc.GetValidation(ctx, "testland")
	require.NoError(t, err)
	assert.False(t, validation.HasFailures())

	trails, err := svc.GetTrails(ctx, "testland", models.TrailFilter{})
	require.NoError(t, err)
	require.Len(t, trails, 2)
	assert.InDelta(t, 2002, trails[0].LengthM, 10)
}

func TestBuildGraphAbortsOnValidationFailure(t *testing.T) {
	cfg, manager := testConfig(t)
	svc := NewGraphService(manager, cfg)
	ctx := context.Background()

	// A single 1m stub cannot produce any routable edge
	report, err := svc.BuildGraph(ctx, "stubland", []models.TrailInput{
		{
			Name:        "Stub",
			Coordinates: [][]float64{{0, 0, 100}, {0.00001, 0, 100}},
		},
	})
	require.NoError(t, err)

	assert.False(t, report.Committed)
	assert.True(t, report.Validation.HasFailures())

	// The aborted workspace never becomes visible
	_, err = svc.GetGraphSummary(ctx, "stubland")
	assert.ErrorIs(t, err, database.ErrNoWorkspace)
}

func TestSearchRoutesEndToEnd(t *testing.T) {
	cfg, manager := testConfig(t)
	graphSvc := NewGraphService(manager, cfg)
	routeSvc := NewRouteService(manager, cfg)
	ctx := context.Background()

	_, err := graphSvc.BuildGraph(ctx, "testland", crossingInputs())
	require.NoError(t, err)

	pattern := models.RoutePattern{
		TargetDistanceKm: 2,
		TolerancePercent: 10,
		Shape:            models.ShapeOutAndBack,
	}

	result, err := routeSvc.SearchRoutes(ctx, "testland", pattern)
	require.NoError(t, err)

	// Each of the four ~1km arms doubles into a ~2km out-and-back
	require.Len(t, result.Recommendations, 4)
	assert.False(t, result.Cached)
	assert.False(t, result.Exhausted)
	assert.InDelta(t, 10, result.ToleranceUsedPercent, 1e-9)

	for _, rec := range result.Recommendations {
		assert.Equal(t, models.ShapeOutAndBack, rec.RouteShape)
		assert.InDelta(t, 2.0, rec.RecommendedLengthKm, 0.1)
		assert.GreaterOrEqual(t, rec.RouteScore, 0.3)
		assert.NotEmpty(t, rec.RouteUUID)
		assert.Contains(t, rec.RoutePath, "MultiLineString")
		assert.Equal(t, 1, rec.TrailCount)
	}

	// The identical request is served from storage
	cached, err := routeSvc.SearchRoutes(ctx, "testland", pattern)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	require.Len(t, cached.Recommendations, 4)

	listed, err := routeSvc.ListRecommendations(ctx, "testland", models.RecommendationFilter{
		Shape: models.ShapeOutAndBack,
	})
	require.NoError(t, err)
	assert.Len(t, listed, 4)
}

func TestSearchRoutesUnknownRegion(t *testing.T) {
	cfg, manager := testConfig(t)
	routeSvc := NewRouteService(manager, cfg)

	_, err := routeSvc.SearchRoutes(context.Background(), "nowhere", models.RoutePattern{
		TargetDistanceKm: 5,
	})
	assert.ErrorIs(t, err, database.ErrNoWorkspace)
}

func TestPatterns(t *testing.T) {
	cfg, manager := testConfig(t)
	routeSvc := NewRouteService(manager, cfg)

	patterns := routeSvc.Patterns()
	require.NotEmpty(t, patterns)
	for _, p := range patterns {
		assert.NotEmpty(t, p.Name)
		assert.Greater(t, p.TargetDistanceKm, 0.0)
	}
}
