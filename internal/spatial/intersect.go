package spatial

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// minSegmentLengthM discards near-degenerate segments from intersection
// testing; crossings found on them are numeric noise, not junctions
const minSegmentLengthM = 5.0

// crossEps is the tolerance for the parametric intersection solve in
// squared-degree units
const crossEps = 1e-12

// SegmentIntersection returns the point where segments (p1,p2) and (p3,p4)
// cross, if they do. Collinear overlaps are excluded: only true point
// intersections count
func SegmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	d1 := orb.Point{p2[0] - p1[0], p2[1] - p1[1]}
	d2 := orb.Point{p4[0] - p3[0], p4[1] - p3[1]}

	denom := d1[0]*d2[1] - d1[1]*d2[0]
	if math.Abs(denom) < crossEps {
		// Parallel or collinear
		return orb.Point{}, false
	}

	t := ((p3[0]-p1[0])*d2[1] - (p3[1]-p1[1])*d2[0]) / denom
	u := ((p3[0]-p1[0])*d1[1] - (p3[1]-p1[1])*d1[0]) / denom

	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}

	return orb.Point{p1[0] + t*d1[0], p1[1] + t*d1[1]}, true
}

// LineIntersections returns every point where two polylines cross.
// Near-degenerate segments are skipped, and points closer than toleranceM
// to an already-found point are merged
func LineIntersections(a, b orb.LineString, toleranceM float64) []orb.Point {
	var found []orb.Point

	for i := 0; i < len(a)-1; i++ {
		if PointDistance(a[i], a[i+1]) < minSegmentLengthM {
			continue
		}
		for j := 0; j < len(b)-1; j++ {
			if PointDistance(b[j], b[j+1]) < minSegmentLengthM {
				continue
			}
			pt, ok := SegmentIntersection(a[i], a[i+1], b[j], b[j+1])
			if !ok {
				continue
			}
			dup := false
			for _, f := range found {
				if WithinRadius(f, pt, toleranceM) {
					dup = true
					break
				}
			}
			if !dup {
				found = append(found, pt)
			}
		}
	}

	return found
}

// LinePosition locates a point along a polyline as a segment index plus a
// fraction of that segment
type LinePosition struct {
	SegmentIndex int
	Fraction     float64
	Point        orb.Point
	DistanceM    float64 // Distance from the query point to the polyline
}

// offset orders positions along the whole polyline
func (p LinePosition) offset() float64 {
	return float64(p.SegmentIndex) + p.Fraction
}

// ProjectOntoLine finds the nearest location on the polyline to point p
func ProjectOntoLine(line orb.LineString, p orb.Point) LinePosition {
	best := LinePosition{SegmentIndex: -1, DistanceM: math.MaxFloat64}

	for i := 0; i < len(line)-1; i++ {
		a, b := line[i], line[i+1]
		dx, dy := b[0]-a[0], b[1]-a[1]
		lenSq := dx*dx + dy*dy

		t := 0.0
		if lenSq > 0 {
			t = ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
			t = math.Max(0, math.Min(1, t))
		}

		proj := orb.Point{a[0] + t*dx, a[1] + t*dy}
		d := PointDistance(p, proj)
		if d < best.DistanceM {
			best = LinePosition{
				SegmentIndex: i,
				Fraction:     t,
				Point:        proj,
				DistanceM:    d,
			}
		}
	}

	return best
}

// InterpolateElevation returns the elevation at a position along a polyline
// with per-vertex elevations
func InterpolateElevation(elevations []float64, pos LinePosition) float64 {
	if len(elevations) == 0 {
		return 0
	}
	i := pos.SegmentIndex
	if i < 0 || i >= len(elevations)-1 {
		return elevations[len(elevations)-1]
	}
	return elevations[i] + pos.Fraction*(elevations[i+1]-elevations[i])
}

// CutLine splits a polyline (with per-vertex elevations) at the given
// positions, returning the ordered pieces. Positions falling on the line's
// ends, or duplicating one another within toleranceM, produce no extra cut,
// which makes splitting idempotent
func CutLine(line orb.LineString, elevations []float64, positions []LinePosition, toleranceM float64) ([]orb.LineString, [][]float64) {
	cuts := make([]LinePosition, 0, len(positions))
	for _, pos := range positions {
		if WithinRadius(pos.Point, line[0], toleranceM) ||
			WithinRadius(pos.Point, line[len(line)-1], toleranceM) {
			continue
		}
		dup := false
		for _, c := range cuts {
			if WithinRadius(c.Point, pos.Point, toleranceM) {
				dup = true
				break
			}
		}
		if !dup {
			cuts = append(cuts, pos)
		}
	}

	if len(cuts) == 0 {
		return []orb.LineString{line}, [][]float64{elevations}
	}

	sort.Slice(cuts, func(i, j int) bool {
		return cuts[i].offset() < cuts[j].offset()
	})

	var pieces []orb.LineString
	var pieceElevs [][]float64

	// Current piece under construction, seeded with the line start
	cur := orb.LineString{line[0]}
	curElev := []float64{elevAt(elevations, 0)}
	vertex := 1

	for _, cut := range cuts {
		// Consume whole vertices up to the cut's segment
		for vertex <= cut.SegmentIndex {
			cur = append(cur, line[vertex])
			curElev = append(curElev, elevAt(elevations, vertex))
			vertex++
		}

		cutElev := InterpolateElevation(elevations, cut)

		// Close the current piece at the cut point, skipping a duplicate
		// vertex when the cut coincides with the last consumed one
		last := cur[len(cur)-1]
		if !WithinRadius(last, cut.Point, toleranceM/10) {
			cur = append(cur, cut.Point)
			curElev = append(curElev, cutElev)
		}
		if len(cur) >= 2 {
			pieces = append(pieces, cur)
			pieceElevs = append(pieceElevs, curElev)
		}

		// Start the next piece at the cut point
		cur = orb.LineString{cut.Point}
		curElev = []float64{cutElev}
	}

	// Remaining vertices form the final piece
	for vertex < len(line) {
		cur = append(cur, line[vertex])
		curElev = append(curElev, elevAt(elevations, vertex))
		vertex++
	}
	if len(cur) >= 2 {
		pieces = append(pieces, cur)
		pieceElevs = append(pieceElevs, curElev)
	}

	return pieces, pieceElevs
}

func elevAt(elevations []float64, i int) float64 {
	if i < len(elevations) {
		return elevations[i]
	}
	return 0
}
