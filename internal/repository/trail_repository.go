package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// TrailRepository handles trail and segment storage for one workspace
type TrailRepository struct {
	db *sql.DB
}

// NewTrailRepository creates a trail repository over a workspace database
func NewTrailRepository(db *sql.DB) *TrailRepository {
	return &TrailRepository{db: db}
}

// InsertTrails stores trails in a single transaction
func (r *TrailRepository) InsertTrails(ctx context.Context, trails []*models.Trail) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trails (id, name, region, geometry, elevations,
				length_m, elevation_gain_m, elevation_loss_m,
				max_elevation_m, min_elevation_m, avg_elevation_m,
				surface, trail_type, difficulty,
				min_lon, min_lat, max_lon, max_lat)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare trail insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range trails {
			geom, err := encodeLineString(t.Geometry)
			if err != nil {
				return err
			}
			elevs, err := encodeJSON(t.Elevations)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				t.ID, t.Name, t.Region, geom, elevs,
				t.LengthM, t.ElevationGainM, t.ElevationLossM,
				t.MaxElevationM, t.MinElevationM, t.AvgElevationM,
				t.Surface, t.TrailType, t.Difficulty,
				t.MinLon, t.MinLat, t.MaxLon, t.MaxLat,
			); err != nil {
				return fmt.Errorf("failed to insert trail %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// GetTrails retrieves trails with optional bbox and limit filtering
func (r *TrailRepository) GetTrails(ctx context.Context, filter models.TrailFilter) ([]*models.Trail, error) {
	query := `SELECT id, name, region, geometry, elevations,
		length_m, elevation_gain_m, elevation_loss_m,
		max_elevation_m, min_elevation_m, avg_elevation_m,
		surface, trail_type, difficulty,
		min_lon, min_lat, max_lon, max_lat
		FROM trails`

	var conditions []string
	var args []interface{}

	if filter.Region != "" {
		conditions = append(conditions, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.MaxLon != 0 || filter.MaxLat != 0 {
		// Bbox overlap test
		conditions = append(conditions, "max_lon >= ? AND min_lon <= ? AND max_lat >= ? AND min_lat <= ?")
		args = append(args, filter.MinLon, filter.MaxLon, filter.MinLat, filter.MaxLat)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trails: %w", err)
	}
	defer rows.Close()

	var trails []*models.Trail
	for rows.Next() {
		var t models.Trail
		var geom, elevs string
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Region, &geom, &elevs,
			&t.LengthM, &t.ElevationGainM, &t.ElevationLossM,
			&t.MaxElevationM, &t.MinElevationM, &t.AvgElevationM,
			&t.Surface, &t.TrailType, &t.Difficulty,
			&t.MinLon, &t.MinLat, &t.MaxLon, &t.MaxLat,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trail: %w", err)
		}
		if t.Geometry, err = decodeLineString(geom); err != nil {
			return nil, err
		}
		if t.Elevations, err = decodeFloats(elevs); err != nil {
			return nil, err
		}
		trails = append(trails, &t)
	}

	return trails, rows.Err()
}

// InsertSegments stores split trail segments in a single transaction
func (r *TrailRepository) InsertSegments(ctx context.Context, segments []*models.TrailSegment) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trail_segments (id, parent_trail_id, seq_no, name, region,
				geometry, elevations, length_m, elevation_gain_m, elevation_loss_m,
				surface, trail_type, difficulty, min_lon, min_lat, max_lon, max_lat)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare segment insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range segments {
			geom, err := encodeLineString(s.Geometry)
			if err != nil {
				return err
			}
			elevs, err := encodeJSON(s.Elevations)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				s.ID, s.ParentTrailID, s.SeqNo, s.Name, s.Region,
				geom, elevs, s.LengthM, s.ElevationGainM, s.ElevationLossM,
				s.Surface, s.TrailType, s.Difficulty,
				s.MinLon, s.MinLat, s.MaxLon, s.MaxLat,
			); err != nil {
				return fmt.Errorf("failed to insert segment %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// InsertIntersectionPoints stores detected intersection points for
// diagnostics and rebuild traceability
func (r *TrailRepository) InsertIntersectionPoints(ctx context.Context, points []models.IntersectionPoint) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO intersection_points (lng, lat, elevation, trail_ids, trail_names, node_type, distance_m)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare intersection insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			ids, err := encodeJSON(p.TrailIDs)
			if err != nil {
				return err
			}
			names, err := encodeJSON(p.TrailNames)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				p.Point[0], p.Point[1], p.Elevation, ids, names, p.NodeType, p.DistanceM,
			); err != nil {
				return fmt.Errorf("failed to insert intersection point: %w", err)
			}
		}
		return nil
	})
}

// CountSegments returns the number of stored segments
func (r *TrailRepository) CountSegments(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trail_segments").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count segments: %w", err)
	}
	return n, nil
}
