package graph

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/ridgeline/trailgraph-backend-go/internal/models"
	"github.com/ridgeline/trailgraph-backend-go/internal/spatial"
)

// degenerateSegmentLengthM is the length below which a split piece is
// considered geometric debris and discarded with a warning
const degenerateSegmentLengthM = 1.0

// Splitter cuts trails at detected intersection points so that no trail
// segment crosses another trail's interior
type Splitter struct {
	ToleranceM float64
}

// NewSplitter creates a splitter with the given cut-merge tolerance in meters
func NewSplitter(toleranceM float64) *Splitter {
	return &Splitter{ToleranceM: toleranceM}
}

// Split produces trail segments by cutting each trail at every intersection
// point that falls on it. Trails touching no intersection pass through as a
// single segment. Near-miss points connect endpoints and never cut interiors
func (s *Splitter) Split(trails []*models.Trail, points []models.IntersectionPoint) ([]*models.TrailSegment, models.StageResult) {
	result := models.StageResult{Stage: "split_trails", Success: true}

	// Group cut positions by trail id
	cutsByTrail := make(map[string][]spatial.LinePosition)
	trailByID := make(map[string]*models.Trail, len(trails))
	for _, t := range trails {
		trailByID[t.ID] = t
	}

	for _, ip := range points {
		if ip.NodeType != models.NodeTypeIntersection {
			continue
		}
		for _, trailID := range ip.TrailIDs {
			t, ok := trailByID[trailID]
			if !ok || !t.Valid() {
				continue
			}
			pos := spatial.ProjectOntoLine(t.Geometry, ip.Point)
			if pos.SegmentIndex < 0 || pos.DistanceM > s.ToleranceM {
				continue
			}
			cutsByTrail[trailID] = append(cutsByTrail[trailID], pos)
		}
	}

	var segments []*models.TrailSegment
	discarded := 0

	for _, t := range trails {
		result.Processed++
		if !t.Valid() {
			result.Failed++
			continue
		}

		pieces, pieceElevs := spatial.CutLine(t.Geometry, t.Elevations, cutsByTrail[t.ID], s.ToleranceM)

		kept := 0
		for i, piece := range pieces {
			seg := newSegment(t, i, piece, pieceElevs[i])
			if !seg.Valid() || seg.LengthM < degenerateSegmentLengthM {
				discarded++
				log.Printf("[Splitter] discarding degenerate segment of trail %s (piece %d, %.2fm)",
					t.ID, i, seg.LengthM)
				continue
			}
			segments = append(segments, seg)
			kept++
		}
		if kept > 0 {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	result.Message = fmt.Sprintf("split %d of %d trails into %d segments (%d degenerate pieces discarded)",
		result.Succeeded, result.Processed, len(segments), discarded)
	log.Printf("[Splitter] %s", result.Message)

	return segments, result
}

// newSegment builds a segment from one piece of a parent trail, with a fresh
// identity and recomputed metrics. Descriptive attributes are inherited;
// length, elevation profile and bbox are recomputed per piece
func newSegment(parent *models.Trail, seqNo int, piece orb.LineString, elevs []float64) *models.TrailSegment {
	gain, loss := spatial.ElevationProfile(elevs)
	bound := piece.Bound()

	return &models.TrailSegment{
		ID:            uuid.NewString(),
		ParentTrailID: parent.ID,
		SeqNo:         seqNo,
		Name:          parent.Name,
		Region:        parent.Region,
		Geometry:      piece,
		Elevations:    elevs,

		LengthM:        spatial.LineLength(piece, elevs),
		ElevationGainM: gain,
		ElevationLossM: loss,

		Surface:    parent.Surface,
		TrailType:  parent.TrailType,
		Difficulty: parent.Difficulty,

		MinLon: bound.Min[0],
		MinLat: bound.Min[1],
		MaxLon: bound.Max[0],
		MaxLat: bound.Max[1],
	}
}
