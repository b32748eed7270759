package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ridgeline/trailgraph-backend-go/internal/config"
	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/models"
	"github.com/ridgeline/trailgraph-backend-go/internal/repository"
	"github.com/ridgeline/trailgraph-backend-go/internal/route"
)

// recommendationTTL is how long stored recommendations stay servable before
// a fresh search is required
const recommendationTTL = 30 * 24 * time.Hour

// requestNamespace seeds deterministic request fingerprints
var requestNamespace = uuid.MustParse("8f7d3b52-9a41-4a6e-b1c7-2e5f90d4a813")

// RouteService answers route recommendation requests against the latest
// committed graph of a region, caching results by request fingerprint
type RouteService struct {
	manager *database.Manager
	cfg     *config.Config
}

// NewRouteService creates a route service
func NewRouteService(manager *database.Manager, cfg *config.Config) *RouteService {
	return &RouteService{manager: manager, cfg: cfg}
}

// RouteSearchResult is the outcome of one recommendation request
type RouteSearchResult struct {
	Recommendations      []*models.RouteRecommendation `json:"recommendations"`
	ToleranceUsedPercent float64                       `json:"tolerance_used_percent"`
	Iterations           int                           `json:"iterations"`
	Exhausted            bool                          `json:"exhausted"`
	Cached               bool                          `json:"cached"`
}

// SearchRoutes finds routes matching a target pattern. Identical requests
// within the recommendation TTL are served from storage without re-running
// the search. An empty result set is a valid outcome when the network cannot
// satisfy the pattern even at maximum tolerance
func (s *RouteService) SearchRoutes(ctx context.Context, region string, pattern models.RoutePattern) (*RouteSearchResult, error) {
	ws, err := s.manager.Latest(region)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	hash := requestHash(region, pattern)
	recRepo := repository.NewRecommendationRepository(ws.DB)

	cached, err := recRepo.FindActiveByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		if err := recRepo.IncrementUsage(ctx, hash); err != nil {
			log.Printf("[RouteService] failed to bump usage for %s: %v", hash, err)
		}
		log.Printf("[RouteService] served %d cached recommendations for region %s", len(cached), region)
		return &RouteSearchResult{
			Recommendations:      cached,
			ToleranceUsedPercent: cached[0].InputTolerancePercent,
			Cached:               true,
		}, nil
	}

	g, err := repository.NewGraphRepository(ws.DB).LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load routing graph: %w", err)
	}

	classifier := route.NewClassifier(s.cfg.MinRouteScore, s.cfg.MaxRoutesPerPattern)
	controller := route.NewAdaptiveController(g, classifier, s.cfg.MaxSearchDepth, s.cfg.MaxTolerancePercent)
	found := controller.FindRoutes(ctx, pattern)

	recs := make([]*models.RouteRecommendation, 0, len(found.Routes))
	for _, c := range found.Routes {
		rec, err := s.toRecommendation(c, g, region, pattern, found.ToleranceUsedPercent, hash)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if len(recs) > 0 {
		if err := recRepo.Insert(ctx, recs); err != nil {
			return nil, fmt.Errorf("failed to store recommendations: %w", err)
		}
	}

	return &RouteSearchResult{
		Recommendations:      recs,
		ToleranceUsedPercent: found.ToleranceUsedPercent,
		Iterations:           found.Iterations,
		Exhausted:            found.Exhausted,
	}, nil
}

// toRecommendation converts a ranked candidate into its persisted form
func (s *RouteService) toRecommendation(c *models.CandidateRoute, g *models.RoutingGraph, region string, pattern models.RoutePattern, tolerance float64, hash string) (*models.RouteRecommendation, error) {
	path, err := routePath(c, g)
	if err != nil {
		return nil, err
	}
	edges, err := json.Marshal(c.EdgeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode route edges: %w", err)
	}
	nodes, err := json.Marshal(c.NodePath)
	if err != nil {
		return nil, fmt.Errorf("failed to encode route nodes: %w", err)
	}

	return &models.RouteRecommendation{
		RouteUUID: uuid.NewString(),
		Region:    region,

		InputLengthKm:         pattern.TargetDistanceKm,
		InputElevationGainM:   pattern.TargetElevationGainM,
		InputTolerancePercent: tolerance,

		RecommendedLengthKm:       c.DistanceKm,
		RecommendedElevationGainM: c.ElevationGainM,

		RouteShape: c.Shape,
		RouteName:  route.RouteName(c, g),
		TrailCount: c.TrailCount(),
		RouteScore: c.Score,

		RoutePath:  path,
		RouteEdges: string(edges),
		RouteNodes: string(nodes),

		RequestHash: hash,
		ExpiresAt:   time.Now().UTC().Add(recommendationTTL),
	}, nil
}

// routePath assembles the route geometry as a GeoJSON MultiLineString, one
// line per traversed edge, oriented in travel direction
func routePath(c *models.CandidateRoute, g *models.RoutingGraph) (string, error) {
	mls := make(orb.MultiLineString, 0, len(c.EdgeIDs))
	for i, edgeID := range c.EdgeIDs {
		e := g.Edges[edgeID]
		if e == nil {
			return "", fmt.Errorf("route references missing edge %s", edgeID)
		}
		ls := e.Geometry
		if i < len(c.NodePath) && e.FromNodeID != c.NodePath[i] {
			ls = reverseLine(ls)
		}
		mls = append(mls, ls)
	}

	b, err := geojson.NewGeometry(mls).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode route path: %w", err)
	}
	return string(b), nil
}

func reverseLine(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}

// requestHash fingerprints the request parameters so identical requests map
// to the same stored recommendations
func requestHash(region string, pattern models.RoutePattern) string {
	canonical := fmt.Sprintf("%s|%.3f|%.1f|%.1f|%s",
		region, pattern.TargetDistanceKm, pattern.TargetElevationGainM,
		pattern.TolerancePercent, pattern.Shape)
	return uuid.NewSHA1(requestNamespace, []byte(canonical)).String()
}

// ListRecommendations retrieves stored recommendations for a region with
// optional filtering
func (s *RouteService) ListRecommendations(ctx context.Context, region string, filter models.RecommendationFilter) ([]*models.RouteRecommendation, error) {
	ws, err := s.manager.Latest(region)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	return repository.NewRecommendationRepository(ws.DB).List(ctx, filter)
}

// Patterns returns the built-in target pattern catalogue
func (s *RouteService) Patterns() []models.RoutePattern {
	return models.BuiltinPatterns
}
