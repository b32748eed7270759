package graph

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
	"github.com/ridgeline/trailgraph-backend-go/internal/spatial"
)

// Detector finds pairwise crossing points between trail curves and endpoint
// near-misses within tolerance
type Detector struct {
	IntersectToleranceM float64
	NearMissToleranceM  float64
	MinTrailLengthM     float64
}

// NewDetector creates a detector with the given tolerances in meters
func NewDetector(intersectTolM, nearMissTolM, minTrailLenM float64) *Detector {
	return &Detector{
		IntersectToleranceM: intersectTolM,
		NearMissToleranceM:  nearMissTolM,
		MinTrailLengthM:     minTrailLenM,
	}
}

// Detect scans every unordered pair of trails for point intersections and
// endpoint near-misses. Trails shorter than the minimum length or with
// invalid geometry are skipped and counted, not fatal
func (d *Detector) Detect(trails []*models.Trail) ([]models.IntersectionPoint, models.StageResult) {
	result := models.StageResult{Stage: "detect_intersections", Success: true}

	// Filter out trails too short or malformed to form a junction
	eligible := make([]*models.Trail, 0, len(trails))
	for _, t := range trails {
		result.Processed++
		if !t.Valid() || t.LengthM < d.MinTrailLengthM {
			result.Failed++
			continue
		}
		eligible = append(eligible, t)
	}

	var points []models.IntersectionPoint

	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			a, b := eligible[i], eligible[j]

			// Cheap bbox rejection before segment-level testing
			padDeg := spatial.MetersToDegrees(d.IntersectToleranceM, a.Geometry[0][1])
			if !a.Bound().Pad(padDeg).Intersects(b.Bound().Pad(padDeg)) {
				continue
			}

			for _, pt := range spatial.LineIntersections(a.Geometry, b.Geometry, d.IntersectToleranceM) {
				posA := spatial.ProjectOntoLine(a.Geometry, pt)
				points = append(points, models.IntersectionPoint{
					Point:      pt,
					Elevation:  spatial.InterpolateElevation(a.Elevations, posA),
					TrailIDs:   []string{a.ID, b.ID},
					TrailNames: []string{a.Name, b.Name},
					NodeType:   models.NodeTypeIntersection,
					DistanceM:  0,
				})
			}

			points = append(points, d.endpointNearMisses(a, b)...)
		}
	}

	result.Succeeded = len(points)
	result.Message = fmt.Sprintf("found %d intersection points across %d trails (%d skipped)",
		len(points), len(eligible), result.Failed)
	log.Printf("[Detector] %s", result.Message)

	return points, result
}

// endpointNearMisses finds endpoint pairs of two trails that lie within the
// near-miss tolerance without exactly coinciding. Real trail data rarely
// terminates exactly where another trail crosses
func (d *Detector) endpointNearMisses(a, b *models.Trail) []models.IntersectionPoint {
	type endpoint struct {
		pt   orb.Point
		elev float64
	}

	endsA := []endpoint{
		{a.StartPoint(), a.Elevations[0]},
		{a.EndPoint(), a.Elevations[len(a.Elevations)-1]},
	}
	endsB := []endpoint{
		{b.StartPoint(), b.Elevations[0]},
		{b.EndPoint(), b.Elevations[len(b.Elevations)-1]},
	}

	var points []models.IntersectionPoint
	for _, ea := range endsA {
		for _, eb := range endsB {
			dist := spatial.PointDistance(ea.pt, eb.pt)
			if dist > d.NearMissToleranceM || dist < exactCoincidenceM {
				continue
			}
			points = append(points, models.IntersectionPoint{
				Point:      spatial.Midpoint(ea.pt, eb.pt),
				Elevation:  (ea.elev + eb.elev) / 2,
				TrailIDs:   []string{a.ID, b.ID},
				TrailNames: []string{a.Name, b.Name},
				NodeType:   models.NodeTypeNearMiss,
				DistanceM:  dist,
			})
		}
	}
	return points
}

// exactCoincidenceM is the separation below which two endpoints count as the
// same point; clustering handles those without a near-miss record
const exactCoincidenceM = 0.01
