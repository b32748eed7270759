package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ridgeline/trailgraph-backend-go/internal/config"
	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/graph"
	"github.com/ridgeline/trailgraph-backend-go/internal/models"
	"github.com/ridgeline/trailgraph-backend-go/internal/repository"
	"github.com/ridgeline/trailgraph-backend-go/internal/spatial"
)

// GraphService orchestrates the build pipeline: ingest trails into a staging
// workspace, detect intersections, split, build and validate the routing
// graph, then commit or abort the workspace as a whole
type GraphService struct {
	manager *database.Manager
	cfg     *config.Config
}

// NewGraphService creates a graph service
func NewGraphService(manager *database.Manager, cfg *config.Config) *GraphService {
	return &GraphService{manager: manager, cfg: cfg}
}

// GraphBuildReport is the full outcome of one build run
type GraphBuildReport struct {
	WorkspaceID string                  `json:"workspace_id"`
	Region      string                  `json:"region"`
	Stages      []models.StageResult    `json:"stages"`
	Validation  models.ValidationReport `json:"validation"`
	NodeCount   int                     `json:"node_count"`
	EdgeCount   int                     `json:"edge_count"`
	Committed   bool                    `json:"committed"`
}

// BuildGraph runs the whole pipeline for a region inside a fresh staging
// workspace. The workspace is committed only when validation has no hard
// failures; otherwise it is aborted and the previous committed data stays
// live. A second build for the same region while one is running fails with
// database.ErrBuildInProgress
func (s *GraphService) BuildGraph(ctx context.Context, region string, inputs []models.TrailInput) (*GraphBuildReport, error) {
	ws, err := s.manager.Begin(region)
	if err != nil {
		return nil, err
	}

	report, err := s.runPipeline(ctx, ws, region, inputs)
	if err != nil {
		s.manager.Abort(ws)
		return nil, err
	}

	if report.Validation.HasFailures() {
		log.Printf("[GraphService] build for region %s failed validation, aborting workspace %s", region, ws.ID)
		s.manager.Abort(ws)
		report.Committed = false
		return report, nil
	}

	if err := s.manager.Commit(ws); err != nil {
		s.manager.Abort(ws)
		return nil, err
	}
	ws.Close()
	report.Committed = true
	return report, nil
}

func (s *GraphService) runPipeline(ctx context.Context, ws *database.Workspace, region string, inputs []models.TrailInput) (*GraphBuildReport, error) {
	report := &GraphBuildReport{WorkspaceID: ws.ID, Region: region}

	trails := make([]*models.Trail, 0, len(inputs))
	for i := range inputs {
		t := inputs[i].ToTrail(region)
		t.ID = uuid.NewString()
		deriveMetrics(t)
		trails = append(trails, t)
	}
	report.Stages = append(report.Stages,
		models.NewStageResult("ingest_trails", "ingested %d trails", len(trails)))

	trailRepo := repository.NewTrailRepository(ws.DB)
	if err := trailRepo.InsertTrails(ctx, trails); err != nil {
		return nil, fmt.Errorf("failed to store trails: %w", err)
	}

	detector := graph.NewDetector(s.cfg.IntersectToleranceM, s.cfg.NearMissToleranceM, s.cfg.MinTrailLengthM)
	points, detectResult := detector.Detect(trails)
	report.Stages = append(report.Stages, detectResult)

	if err := trailRepo.InsertIntersectionPoints(ctx, points); err != nil {
		return nil, fmt.Errorf("failed to store intersection points: %w", err)
	}

	splitter := graph.NewSplitter(s.cfg.IntersectToleranceM)
	segments, splitResult := splitter.Split(trails, points)
	report.Stages = append(report.Stages, splitResult)

	if err := trailRepo.InsertSegments(ctx, segments); err != nil {
		return nil, fmt.Errorf("failed to store segments: %w", err)
	}

	builder := graph.NewBuilder(s.cfg.NodeToleranceM, s.cfg.NearMissToleranceM)
	g, buildResult := builder.Build(segments, points)
	report.Stages = append(report.Stages, buildResult)
	report.NodeCount = len(g.Nodes)
	report.EdgeCount = len(g.Edges)

	report.Validation = graph.NewValidator().Validate(g)

	if err := repository.NewGraphRepository(ws.DB).SaveGraph(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to store routing graph: %w", err)
	}

	if err := storeValidationReport(ws, report.Validation); err != nil {
		return nil, err
	}

	return report, nil
}

// deriveMetrics computes length, elevation profile and bounding box for an
// ingested trail
func deriveMetrics(t *models.Trail) {
	if !t.Valid() {
		return
	}

	t.LengthM = spatial.LineLength(t.Geometry, t.Elevations)
	t.ElevationGainM, t.ElevationLossM = spatial.ElevationProfile(t.Elevations)

	min, max, sum := t.Elevations[0], t.Elevations[0], 0.0
	for _, e := range t.Elevations {
		if e < min {
			min = e
		}
		if e > max {
			max = e
		}
		sum += e
	}
	t.MinElevationM = min
	t.MaxElevationM = max
	t.AvgElevationM = sum / float64(len(t.Elevations))

	bound := t.Bound()
	t.MinLon, t.MinLat = bound.Min[0], bound.Min[1]
	t.MaxLon, t.MaxLat = bound.Max[0], bound.Max[1]
}

func storeValidationReport(ws *database.Workspace, report models.ValidationReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode validation report: %w", err)
	}
	if _, err := ws.DB.Exec(
		`INSERT OR REPLACE INTO workspace_meta (key, value) VALUES ('validation_report', ?)`,
		string(b),
	); err != nil {
		return fmt.Errorf("failed to store validation report: %w", err)
	}
	return nil
}

// GraphSummary describes the committed graph of a region
type GraphSummary struct {
	WorkspaceID string `json:"workspace_id"`
	Region      string `json:"region"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
}

// GraphDetail is the full committed graph of a region
type GraphDetail struct {
	GraphSummary
	Nodes []*models.RoutingNode `json:"nodes"`
	Edges []*models.RoutingEdge `json:"edges"`
}

// GetGraph returns the nodes and edges of the latest committed workspace for
// a region
func (s *GraphService) GetGraph(ctx context.Context, region string) (*GraphDetail, error) {
	ws, err := s.manager.Latest(region)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	g, err := repository.NewGraphRepository(ws.DB).LoadGraph(ctx)
	if err != nil {
		return nil, err
	}

	detail := &GraphDetail{
		GraphSummary: GraphSummary{
			WorkspaceID: ws.ID,
			Region:      region,
			NodeCount:   len(g.Nodes),
			EdgeCount:   len(g.Edges),
		},
		Nodes: make([]*models.RoutingNode, 0, len(g.Nodes)),
		Edges: make([]*models.RoutingEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		detail.Nodes = append(detail.Nodes, n)
	}
	for _, e := range g.Edges {
		detail.Edges = append(detail.Edges, e)
	}
	return detail, nil
}

// GetGraphSummary reports node and edge counts of the latest committed
// workspace for a region
func (s *GraphService) GetGraphSummary(ctx context.Context, region string) (*GraphSummary, error) {
	ws, err := s.manager.Latest(region)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	nodes, edges, err := repository.NewGraphRepository(ws.DB).Counts(ctx)
	if err != nil {
		return nil, err
	}

	return &GraphSummary{
		WorkspaceID: ws.ID,
		Region:      region,
		NodeCount:   nodes,
		EdgeCount:   edges,
	}, nil
}

// GetValidation returns the stored validation report of the latest committed
// workspace for a region
func (s *GraphService) GetValidation(ctx context.Context, region string) (*models.ValidationReport, error) {
	ws, err := s.manager.Latest(region)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	var raw string
	if err := ws.DB.QueryRowContext(ctx,
		`SELECT value FROM workspace_meta WHERE key = 'validation_report'`,
	).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to read validation report: %w", err)
	}

	var report models.ValidationReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to decode validation report: %w", err)
	}
	return &report, nil
}

// GetTrails lists trails of the latest committed workspace for a region
func (s *GraphService) GetTrails(ctx context.Context, region string, filter models.TrailFilter) ([]*models.Trail, error) {
	ws, err := s.manager.Latest(region)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	return repository.NewTrailRepository(ws.DB).GetTrails(ctx, filter)
}

// PruneWorkspaces removes committed workspaces past the retention count
func (s *GraphService) PruneWorkspaces(region string) (int, error) {
	return s.manager.Prune(region)
}

// DropWorkspace deletes a workspace by id
func (s *GraphService) DropWorkspace(id string) error {
	return s.manager.Drop(id)
}
