package models

import (
	"github.com/paulmach/orb"
)

// Node type constants
const (
	NodeTypeIntersection = "intersection"
	NodeTypeEndpoint     = "endpoint"
	NodeTypeNearMiss     = "near-miss" // Diagnostic tag on IntersectionPoint only
)

// IntersectionPoint is a computed location where two or more trails cross or
// nearly meet. It feeds node generation and is not primary data
type IntersectionPoint struct {
	Point      orb.Point `json:"point"`
	Elevation  float64   `json:"elevation"`
	TrailIDs   []string  `json:"trail_ids"`
	TrailNames []string  `json:"trail_names,omitempty"`
	NodeType   string    `json:"node_type"`  // intersection, endpoint or near-miss
	DistanceM  float64   `json:"distance_m"` // Measured separation (0 for true crossings)
}

// RoutingNode is a canonical point in the routable graph
type RoutingNode struct {
	ID              string   `json:"id" db:"id"`
	Lat             float64  `json:"lat" db:"lat"`
	Lng             float64  `json:"lng" db:"lng"`
	Elevation       float64  `json:"elevation" db:"elevation"`
	NodeType        string   `json:"node_type" db:"node_type"` // intersection or endpoint
	ConnectedTrails []string `json:"connected_trails" db:"connected_trails"`
}

// Point returns the node location as an orb.Point (lng, lat)
func (n *RoutingNode) Point() orb.Point {
	return orb.Point{n.Lng, n.Lat}
}

// RoutingEdge is a graph connection corresponding to one trail segment
// between two nodes. Edges are traversable in both directions
type RoutingEdge struct {
	ID         string `json:"id" db:"id"`
	FromNodeID string `json:"from_node_id" db:"from_node_id"`
	ToNodeID   string `json:"to_node_id" db:"to_node_id"`
	TrailID    string `json:"trail_id" db:"trail_id"`
	TrailName  string `json:"trail_name,omitempty" db:"trail_name"`

	LengthM        float64 `json:"length_m" db:"length_m"`
	ElevationGainM float64 `json:"elevation_gain_m" db:"elevation_gain_m"`
	ElevationLossM float64 `json:"elevation_loss_m" db:"elevation_loss_m"`

	Geometry   orb.LineString `json:"geometry" db:"geometry"`
	Elevations []float64      `json:"elevations,omitempty" db:"elevations"`
}

// OtherEnd returns the node id at the opposite end of the edge, and whether
// nodeID is incident to the edge at all
func (e *RoutingEdge) OtherEnd(nodeID string) (string, bool) {
	switch nodeID {
	case e.FromNodeID:
		return e.ToNodeID, true
	case e.ToNodeID:
		return e.FromNodeID, true
	}
	return "", false
}

// RoutingGraph is the in-memory routable graph for one workspace
type RoutingGraph struct {
	Nodes map[string]*RoutingNode
	Edges map[string]*RoutingEdge

	// Adjacency maps node id to incident edge ids
	Adjacency map[string][]string
}

// NewRoutingGraph creates an empty routing graph
func NewRoutingGraph() *RoutingGraph {
	return &RoutingGraph{
		Nodes:     make(map[string]*RoutingNode),
		Edges:     make(map[string]*RoutingEdge),
		Adjacency: make(map[string][]string),
	}
}

// AddNode inserts a node into the graph
func (g *RoutingGraph) AddNode(n *RoutingNode) {
	g.Nodes[n.ID] = n
}

// AddEdge inserts an edge and indexes it on both endpoints
func (g *RoutingGraph) AddEdge(e *RoutingEdge) {
	g.Edges[e.ID] = e
	g.Adjacency[e.FromNodeID] = append(g.Adjacency[e.FromNodeID], e.ID)
	g.Adjacency[e.ToNodeID] = append(g.Adjacency[e.ToNodeID], e.ID)
}

// Degree returns the number of edges incident to a node
func (g *RoutingGraph) Degree(nodeID string) int {
	return len(g.Adjacency[nodeID])
}

// RemoveNode deletes a node and its adjacency entry
func (g *RoutingGraph) RemoveNode(nodeID string) {
	delete(g.Nodes, nodeID)
	delete(g.Adjacency, nodeID)
}

// RemoveEdge deletes an edge and unindexes it from both endpoints
func (g *RoutingGraph) RemoveEdge(edgeID string) {
	e, ok := g.Edges[edgeID]
	if !ok {
		return
	}
	delete(g.Edges, edgeID)
	g.Adjacency[e.FromNodeID] = removeString(g.Adjacency[e.FromNodeID], edgeID)
	g.Adjacency[e.ToNodeID] = removeString(g.Adjacency[e.ToNodeID], edgeID)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
