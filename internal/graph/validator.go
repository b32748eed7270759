package graph

import (
	"log"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// Validator checks a built routing graph for structural defects. Each check
// passes, warns or fails independently; the validator never aborts the
// pipeline, the caller decides what to do with the report
type Validator struct {
	// MaxEdgeNodeRatio is the sanity bound on average connectivity; a graph
	// near this bound usually means over-tolerant clustering collapsed
	// unrelated junctions
	MaxEdgeNodeRatio float64
}

// NewValidator creates a validator with the default connectivity bound
func NewValidator() *Validator {
	return &Validator{MaxEdgeNodeRatio: 4.0}
}

// Validate runs all checks against the graph and returns the report
func (v *Validator) Validate(g *models.RoutingGraph) models.ValidationReport {
	var report models.ValidationReport

	nodeCount := len(g.Nodes)
	if nodeCount > 0 {
		report.Add("node_count", models.StatusPass, nodeCount, "%d routing nodes", nodeCount)
	} else {
		report.Add("node_count", models.StatusFail, 0, "graph has no routing nodes")
	}

	edgeCount := len(g.Edges)
	if edgeCount > 0 {
		report.Add("edge_count", models.StatusPass, edgeCount, "%d routing edges", edgeCount)
	} else {
		report.Add("edge_count", models.StatusFail, 0, "graph has no routing edges")
	}

	isolated := 0
	deadEnds := 0
	for id, n := range g.Nodes {
		degree := g.Degree(id)
		if degree == 0 {
			isolated++
		}
		if degree == 1 && n.NodeType == models.NodeTypeIntersection {
			deadEnds++
		}
	}
	if isolated == 0 {
		report.Add("isolated_nodes", models.StatusPass, 0, "no isolated nodes")
	} else {
		report.Add("isolated_nodes", models.StatusWarn, isolated, "%d nodes have no incident edges", isolated)
	}
	if deadEnds == 0 {
		report.Add("dead_ends", models.StatusPass, 0, "no dead-end intersection nodes")
	} else {
		report.Add("dead_ends", models.StatusWarn, deadEnds, "%d intersection nodes have only one edge", deadEnds)
	}

	dangling := 0
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.FromNodeID]; !ok {
			dangling++
			continue
		}
		if _, ok := g.Nodes[e.ToNodeID]; !ok {
			dangling++
		}
	}
	if dangling == 0 {
		report.Add("dangling_edges", models.StatusPass, 0, "all edges reference existing nodes")
	} else {
		report.Add("dangling_edges", models.StatusFail, dangling, "%d edges reference missing nodes", dangling)
	}

	if nodeCount > 0 {
		ratio := float64(edgeCount) / float64(nodeCount)
		if ratio <= v.MaxEdgeNodeRatio {
			report.Add("edge_node_ratio", models.StatusPass, 0, "edge/node ratio %.2f within bound %.1f", ratio, v.MaxEdgeNodeRatio)
		} else {
			report.Add("edge_node_ratio", models.StatusFail, edgeCount, "edge/node ratio %.2f exceeds bound %.1f, clustering tolerance is likely too large", ratio, v.MaxEdgeNodeRatio)
		}
	}

	components := countComponents(g)
	if components <= 1 {
		report.Add("connected_components", models.StatusPass, components, "graph is fully connected")
	} else {
		report.Add("connected_components", models.StatusWarn, components, "graph has %d disconnected subgraphs", components)
	}

	log.Printf("[Validator] %d checks, %d warnings, failures=%v",
		len(report.Checks), report.WarnCount(), report.HasFailures())

	return report
}

// countComponents counts connected components via breadth-first traversal
// over the adjacency index
func countComponents(g *models.RoutingGraph) int {
	visited := make(map[string]bool, len(g.Nodes))
	components := 0

	for id := range g.Nodes {
		if visited[id] {
			continue
		}
		components++

		queue := []string{id}
		visited[id] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, edgeID := range g.Adjacency[cur] {
				e := g.Edges[edgeID]
				if e == nil {
					continue
				}
				next, ok := e.OtherEnd(cur)
				if ok && !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}

	return components
}
