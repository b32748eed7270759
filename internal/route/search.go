package route

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// SearchParams bound one search pass over the graph
type SearchParams struct {
	TargetDistanceKm     float64
	TargetElevationGainM float64
	TolerancePercent     float64
	MaxDepth             int // Maximum hop count per path
	MaxCandidates        int // Stop enumerating once this many accepted
}

// Engine enumerates candidate routes over a routing graph by bounded
// depth-first traversal. It finds any path inside the tolerance band, not
// the single best one; ranking happens afterward
type Engine struct {
	graph *models.RoutingGraph
}

// NewEngine creates a search engine over the given graph
func NewEngine(g *models.RoutingGraph) *Engine {
	return &Engine{graph: g}
}

// searchState carries the per-search bounds and accumulators
type searchState struct {
	params SearchParams

	// Acceptance bands in meters
	distLow, distHigh float64
	elevLow, elevHigh float64

	accepted []*models.CandidateRoute
	seen     map[string]bool // Signatures of accepted candidates
	done     bool
}

// pathState is the per-path traversal state; each path owns its visited set
type pathState struct {
	nodes   []string
	edges   []string
	visited map[string]bool

	distM  float64
	gainM  float64
	lossM  float64
}

// Search seeds a depth-bounded DFS at every node and collects every path
// whose cumulative distance and elevation gain fall inside the tolerance
// band. Context cancellation stops producing further candidates and returns
// what exists so far
func (e *Engine) Search(ctx context.Context, params SearchParams) []*models.CandidateRoute {
	if params.MaxDepth <= 0 {
		params.MaxDepth = 8
	}
	if params.MaxCandidates <= 0 {
		params.MaxCandidates = 200
	}

	tol := params.TolerancePercent / 100
	targetDistM := params.TargetDistanceKm * 1000

	st := &searchState{
		params:   params,
		distLow:  targetDistM * (1 - tol),
		distHigh: targetDistM * (1 + tol),
		elevLow:  params.TargetElevationGainM * (1 - tol),
		elevHigh: params.TargetElevationGainM * (1 + tol),
		seen:     make(map[string]bool),
	}

	// Deterministic seeding order
	startIDs := make([]string, 0, len(e.graph.Nodes))
	for id := range e.graph.Nodes {
		startIDs = append(startIDs, id)
	}
	sort.Strings(startIDs)

	for _, startID := range startIDs {
		if st.done || ctx.Err() != nil {
			break
		}
		path := &pathState{
			nodes:   []string{startID},
			visited: map[string]bool{startID: true},
		}
		e.extend(ctx, st, path, startID)
	}

	log.Printf("[RouteSearch] target %.1fkm/%.0fm tol %.0f%%: %d candidates",
		params.TargetDistanceKm, params.TargetElevationGainM, params.TolerancePercent, len(st.accepted))

	return st.accepted
}

// extend tries every incident edge of the current node, pruning on depth,
// revisits and the tolerance-inflated upper bounds
func (e *Engine) extend(ctx context.Context, st *searchState, path *pathState, nodeID string) {
	if st.done || ctx.Err() != nil {
		return
	}

	depth := len(path.edges)
	if depth >= st.params.MaxDepth {
		// Terminal: depth budget exhausted without acceptance
		return
	}

	// Bound the branching factor: a path still below half the lower distance
	// bound cannot recover with no remaining depth budget
	if depth == st.params.MaxDepth-1 && path.distM < st.distLow/2 {
		return
	}

	startID := path.nodes[0]

	for _, edgeID := range e.graph.Adjacency[nodeID] {
		if st.done {
			return
		}
		edge := e.graph.Edges[edgeID]
		if edge == nil {
			continue
		}
		if containsString(path.edges, edgeID) {
			continue
		}
		target, ok := edge.OtherEnd(nodeID)
		if !ok {
			continue
		}

		// Cycle avoidance: a revisited node prunes the branch, except a
		// return to the start which closes a loop
		closesLoop := target == startID && depth >= 1
		if path.visited[target] && !closesLoop {
			continue
		}

		gain, loss := edgeProfile(edge, nodeID)
		newDist := path.distM + edge.LengthM
		newGain := path.gainM + gain
		if newDist > st.distHigh || newGain > st.elevHigh {
			continue
		}

		path.nodes = append(path.nodes, target)
		path.edges = append(path.edges, edgeID)
		path.distM = newDist
		path.gainM += gain
		path.lossM += loss

		e.evaluate(st, path)
		if !closesLoop {
			path.visited[target] = true
			e.extend(ctx, st, path, target)
			delete(path.visited, target)
		}

		path.nodes = path.nodes[:len(path.nodes)-1]
		path.edges = path.edges[:len(path.edges)-1]
		path.distM -= edge.LengthM
		path.gainM -= gain
		path.lossM -= loss
	}
}

// evaluate accepts the current path if it sits inside the tolerance band,
// and also considers the doubled out-and-back variant (walk out, turn
// around, retrace), whose return leg swaps gain and loss
func (e *Engine) evaluate(st *searchState, path *pathState) {
	if e.inBand(st, path.distM, path.gainM) {
		e.accept(st, path.nodes, path.edges, path.distM, path.gainM, path.lossM)
	}

	// Out-and-back doubling only makes sense for open paths
	if path.nodes[0] == path.nodes[len(path.nodes)-1] {
		return
	}
	obDist := path.distM * 2
	obGain := path.gainM + path.lossM
	if e.inBand(st, obDist, obGain) {
		nodes := doubleBack(path.nodes)
		edges := append(append([]string{}, path.edges...), reverseStrings(path.edges)...)
		e.accept(st, nodes, edges, obDist, obGain, obGain)
	}
}

func (e *Engine) inBand(st *searchState, distM, gainM float64) bool {
	if distM < st.distLow || distM > st.distHigh {
		return false
	}
	// A zero elevation target accepts any gain inside the distance band
	if st.params.TargetElevationGainM <= 0 {
		return true
	}
	return gainM >= st.elevLow && gainM <= st.elevHigh
}

// accept records a candidate unless an equivalent one (same edges walked in
// the other direction, or the same loop seeded elsewhere) is already known
func (e *Engine) accept(st *searchState, nodes, edges []string, distM, gainM, lossM float64) {
	sig := signature(nodes, edges)
	if st.seen[sig] {
		return
	}
	st.seen[sig] = true

	trailSet := make(map[string]struct{})
	for _, edgeID := range edges {
		if edge := e.graph.Edges[edgeID]; edge != nil {
			trailSet[edge.TrailID] = struct{}{}
		}
	}
	trails := make([]string, 0, len(trailSet))
	for id := range trailSet {
		trails = append(trails, id)
	}
	sort.Strings(trails)

	st.accepted = append(st.accepted, &models.CandidateRoute{
		NodePath:       append([]string{}, nodes...),
		EdgeIDs:        append([]string{}, edges...),
		DistanceKm:     distM / 1000,
		ElevationGainM: gainM,
		ElevationLossM: lossM,
		TrailIDs:       trails,
	})

	if len(st.accepted) >= st.params.MaxCandidates {
		st.done = true
	}
}

// edgeProfile returns gain and loss for traversing the edge starting from
// fromNodeID; walking an edge backwards swaps its gain and loss
func edgeProfile(edge *models.RoutingEdge, fromNodeID string) (gain, loss float64) {
	if fromNodeID == edge.FromNodeID {
		return edge.ElevationGainM, edge.ElevationLossM
	}
	return edge.ElevationLossM, edge.ElevationGainM
}

// signature canonicalizes a candidate for dedup: the sorted edge multiset
// collapses direction-reversed duplicates, and closed paths drop their seed
// node so the same loop discovered from different starts counts once
func signature(nodes, edges []string) string {
	sorted := append([]string{}, edges...)
	sort.Strings(sorted)

	a, b := nodes[0], nodes[len(nodes)-1]
	if a == b {
		return "closed|" + strings.Join(sorted, ",")
	}
	if a > b {
		a, b = b, a
	}
	return a + "|" + b + "|" + strings.Join(sorted, ",")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func reverseStrings(list []string) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[len(list)-1-i] = v
	}
	return out
}

func doubleBack(nodes []string) []string {
	out := append([]string{}, nodes...)
	for i := len(nodes) - 2; i >= 0; i-- {
		out = append(out, nodes[i])
	}
	return out
}
