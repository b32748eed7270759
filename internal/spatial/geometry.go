package spatial

import (
	"math"

	"github.com/paulmach/orb"
)

// Cluster is a group of input points within tolerance of one another,
// reduced to its centroid
type Cluster struct {
	Centroid orb.Point
	Members  []int // Indices into the input point slice
}

// Centroid calculates the geographic centroid of a set of points
func Centroid(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return orb.Point{}
	}

	var sumLon, sumLat float64
	for _, p := range points {
		sumLon += p[0]
		sumLat += p[1]
	}

	return orb.Point{
		sumLon / float64(len(points)),
		sumLat / float64(len(points)),
	}
}

// ClusterPoints groups points whose pairwise chains stay within toleranceM
// meters (transitive closure, not strict radius-from-centroid) and returns
// one cluster per group with its centroid
func ClusterPoints(points []orb.Point, toleranceM float64) []Cluster {
	return ClusterPointsWithRadii(points, nil, toleranceM)
}

// ClusterPointsWithRadii is ClusterPoints with an optional per-point radius
// override: two points join a cluster when their distance is within the
// larger of their radii. Near-miss junction points carry a radius wide
// enough to pull both endpoints into one node
func ClusterPointsWithRadii(points []orb.Point, radii []float64, toleranceM float64) []Cluster {
	n := len(points)
	if n == 0 {
		return nil
	}

	radiusOf := func(i int) float64 {
		if i < len(radii) && radii[i] > toleranceM {
			return radii[i]
		}
		return toleranceM
	}

	// Union-find over points within tolerance of each other
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			tol := math.Max(radiusOf(i), radiusOf(j))
			if WithinRadius(points[i], points[j], tol) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	clusters := make([]Cluster, 0, len(groups))
	for _, members := range groups {
		pts := make([]orb.Point, len(members))
		for k, idx := range members {
			pts[k] = points[idx]
		}
		clusters = append(clusters, Cluster{
			Centroid: Centroid(pts),
			Members:  members,
		})
	}

	return clusters
}

// NearestPoint returns the index of the candidate nearest to p within
// toleranceM meters, or -1 when none qualifies. Ties resolve to the
// smallest distance encountered first
func NearestPoint(p orb.Point, candidates []orb.Point, toleranceM float64) int {
	best := -1
	bestDist := 0.0
	for i, c := range candidates {
		d := PointDistance(p, c)
		if d > toleranceM {
			continue
		}
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
