package graph

import (
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
	"github.com/ridgeline/trailgraph-backend-go/internal/spatial"
)

// Builder derives canonical routing nodes and edges from trail segments and
// detected intersection points
type Builder struct {
	NodeToleranceM float64
	// EdgeMatchToleranceM is the fallback radius for binding a segment
	// endpoint to a node when nothing lies within the node tolerance;
	// it covers endpoints absorbed into a near-miss node
	EdgeMatchToleranceM float64
}

// NewBuilder creates a builder with the given tolerances in meters
func NewBuilder(nodeToleranceM, edgeMatchToleranceM float64) *Builder {
	if edgeMatchToleranceM < nodeToleranceM {
		edgeMatchToleranceM = nodeToleranceM
	}
	return &Builder{
		NodeToleranceM:      nodeToleranceM,
		EdgeMatchToleranceM: edgeMatchToleranceM,
	}
}

// candidatePoint is one node-generation input: a segment endpoint or a
// detected intersection point, with the trails it belongs to
type candidatePoint struct {
	point     orb.Point
	elevation float64
	trailIDs  []string
	radius    float64 // Cluster radius override; 0 means node tolerance
}

// Build runs both graph passes: node generation (cluster segment endpoints
// and intersection points) and edge generation (bind each segment to its two
// nearest nodes), followed by mandatory two-sided orphan cleanup
func (b *Builder) Build(segments []*models.TrailSegment, points []models.IntersectionPoint) (*models.RoutingGraph, models.StageResult) {
	result := models.StageResult{Stage: "build_graph", Success: true}

	g := models.NewRoutingGraph()
	candidates := b.collectCandidates(segments, points)
	nodes := b.generateNodes(candidates)
	for _, n := range nodes {
		g.AddNode(n)
	}

	unmatched := b.generateEdges(g, nodes, segments)
	removedNodes, removedEdges := b.cleanupOrphans(g)

	result.Processed = len(segments)
	result.Succeeded = len(g.Edges)
	result.Failed = unmatched
	result.Message = fmt.Sprintf("built %d nodes, %d edges from %d segments (%d unmatched, pruned %d orphan nodes, %d orphan edges)",
		len(g.Nodes), len(g.Edges), len(segments), unmatched, removedNodes, removedEdges)
	if unmatched > 0 {
		log.Printf("[Builder] %d segments had no node within %.1fm at one or both ends", unmatched, b.NodeToleranceM)
	}
	log.Printf("[Builder] %s", result.Message)

	return g, result
}

// collectCandidates gathers every segment start/end point plus every
// detected intersection point as node-generation input
func (b *Builder) collectCandidates(segments []*models.TrailSegment, points []models.IntersectionPoint) []candidatePoint {
	var candidates []candidatePoint

	for _, seg := range segments {
		if !seg.Valid() {
			continue
		}
		candidates = append(candidates,
			candidatePoint{
				point:     seg.StartPoint(),
				elevation: seg.Elevations[0],
				trailIDs:  []string{seg.ParentTrailID},
			},
			candidatePoint{
				point:     seg.EndPoint(),
				elevation: seg.Elevations[len(seg.Elevations)-1],
				trailIDs:  []string{seg.ParentTrailID},
			},
		)
	}

	for _, ip := range points {
		radius := 0.0
		if ip.NodeType == models.NodeTypeNearMiss {
			// Wide enough to absorb both endpoints of the near-miss pair
			radius = ip.DistanceM/2 + b.NodeToleranceM
		}
		candidates = append(candidates, candidatePoint{
			point:     ip.Point,
			elevation: ip.Elevation,
			trailIDs:  ip.TrailIDs,
			radius:    radius,
		})
	}

	return candidates
}

// generateNodes clusters candidate points within the node tolerance; each
// cluster becomes one routing node typed by how many distinct trails meet
// there
func (b *Builder) generateNodes(candidates []candidatePoint) []*models.RoutingNode {
	pts := make([]orb.Point, len(candidates))
	radii := make([]float64, len(candidates))
	for i, c := range candidates {
		pts[i] = c.point
		radii[i] = c.radius
	}

	clusters := spatial.ClusterPointsWithRadii(pts, radii, b.NodeToleranceM)

	nodes := make([]*models.RoutingNode, 0, len(clusters))
	for _, cluster := range clusters {
		trailSet := make(map[string]struct{})
		elevSum := 0.0
		for _, idx := range cluster.Members {
			for _, id := range candidates[idx].trailIDs {
				trailSet[id] = struct{}{}
			}
			elevSum += candidates[idx].elevation
		}

		trails := make([]string, 0, len(trailSet))
		for id := range trailSet {
			trails = append(trails, id)
		}
		sort.Strings(trails)

		nodeType := models.NodeTypeEndpoint
		if len(trails) >= 2 {
			nodeType = models.NodeTypeIntersection
		}

		nodes = append(nodes, &models.RoutingNode{
			ID:              uuid.NewString(),
			Lng:             cluster.Centroid[0],
			Lat:             cluster.Centroid[1],
			Elevation:       elevSum / float64(len(cluster.Members)),
			NodeType:        nodeType,
			ConnectedTrails: trails,
		})
	}

	return nodes
}

// generateEdges binds each segment to the nearest node within tolerance at
// each end and emits one edge per bindable segment. Returns the number of
// segments that could not be matched
func (b *Builder) generateEdges(g *models.RoutingGraph, nodes []*models.RoutingNode, segments []*models.TrailSegment) int {
	nodePts := make([]orb.Point, len(nodes))
	for i, n := range nodes {
		nodePts[i] = n.Point()
	}

	unmatched := 0
	for _, seg := range segments {
		if !seg.Valid() {
			continue
		}

		fromIdx := b.bindEndpoint(seg.StartPoint(), nodePts)
		toIdx := b.bindEndpoint(seg.EndPoint(), nodePts)

		if fromIdx < 0 || toIdx < 0 || fromIdx == toIdx {
			unmatched++
			continue
		}

		g.AddEdge(&models.RoutingEdge{
			ID:             uuid.NewString(),
			FromNodeID:     nodes[fromIdx].ID,
			ToNodeID:       nodes[toIdx].ID,
			TrailID:        seg.ParentTrailID,
			TrailName:      seg.Name,
			LengthM:        seg.LengthM,
			ElevationGainM: seg.ElevationGainM,
			ElevationLossM: seg.ElevationLossM,
			Geometry:       seg.Geometry,
			Elevations:     seg.Elevations,
		})
	}

	return unmatched
}

// bindEndpoint finds the nearest node for a segment endpoint, preferring the
// node tolerance and falling back to the wider edge-match tolerance
func (b *Builder) bindEndpoint(p orb.Point, nodePts []orb.Point) int {
	if idx := spatial.NearestPoint(p, nodePts, b.NodeToleranceM); idx >= 0 {
		return idx
	}
	return spatial.NearestPoint(p, nodePts, b.EdgeMatchToleranceM)
}

// cleanupOrphans removes edges referencing missing nodes, then nodes with no
// incident edges. Both sides are mandatory; the validator treats residual
// orphans as a hard failure
func (b *Builder) cleanupOrphans(g *models.RoutingGraph) (removedNodes, removedEdges int) {
	for id, e := range g.Edges {
		_, fromOK := g.Nodes[e.FromNodeID]
		_, toOK := g.Nodes[e.ToNodeID]
		if !fromOK || !toOK {
			g.RemoveEdge(id)
			removedEdges++
		}
	}

	for id := range g.Nodes {
		if g.Degree(id) == 0 {
			g.RemoveNode(id)
			removedNodes++
		}
	}

	return removedNodes, removedEdges
}
