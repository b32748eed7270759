package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// RecommendationRepository handles stored route recommendations for one
// workspace
type RecommendationRepository struct {
	db *sql.DB
}

// NewRecommendationRepository creates a recommendation repository over a
// workspace database
func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

const recommendationColumns = `route_uuid, region,
	input_length_km, input_elevation_gain_m, input_tolerance_percent,
	recommended_length_km, recommended_elevation_gain_m,
	route_shape, route_name, trail_count, route_score,
	route_path, route_edges, route_nodes,
	request_hash, expires_at, usage_count, created_at`

// Insert stores a batch of recommendations in a single transaction
func (r *RecommendationRepository) Insert(ctx context.Context, recs []*models.RouteRecommendation) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO route_recommendations (route_uuid, region,
				input_length_km, input_elevation_gain_m, input_tolerance_percent,
				recommended_length_km, recommended_elevation_gain_m,
				route_shape, route_name, trail_count, route_score,
				route_path, route_edges, route_nodes,
				request_hash, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare recommendation insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			if _, err := stmt.ExecContext(ctx,
				rec.RouteUUID, rec.Region,
				rec.InputLengthKm, rec.InputElevationGainM, rec.InputTolerancePercent,
				rec.RecommendedLengthKm, rec.RecommendedElevationGainM,
				rec.RouteShape, rec.RouteName, rec.TrailCount, rec.RouteScore,
				rec.RoutePath, rec.RouteEdges, rec.RouteNodes,
				rec.RequestHash, rec.ExpiresAt.UTC().Format(time.RFC3339),
			); err != nil {
				return fmt.Errorf("failed to insert recommendation %s: %w", rec.RouteUUID, err)
			}
		}
		return nil
	})
}

// FindActiveByHash returns non-expired recommendations matching a request
// fingerprint, best score first
func (r *RecommendationRepository) FindActiveByHash(ctx context.Context, hash string) ([]*models.RouteRecommendation, error) {
	query := `SELECT ` + recommendationColumns + `
		FROM route_recommendations
		WHERE request_hash = ? AND expires_at > ?
		ORDER BY route_score DESC`

	rows, err := r.db.QueryContext(ctx, query, hash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations by hash: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

// IncrementUsage bumps the usage counter on every recommendation sharing a
// request fingerprint
func (r *RecommendationRepository) IncrementUsage(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE route_recommendations SET usage_count = usage_count + 1 WHERE request_hash = ?`,
		hash,
	)
	if err != nil {
		return fmt.Errorf("failed to increment usage count: %w", err)
	}
	return nil
}

// List retrieves stored recommendations with optional filtering
func (r *RecommendationRepository) List(ctx context.Context, filter models.RecommendationFilter) ([]*models.RouteRecommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM route_recommendations`

	var conditions []string
	var args []interface{}

	if filter.Shape != "" {
		conditions = append(conditions, "route_shape = ?")
		args = append(args, filter.Shape)
	}
	if filter.MinScore > 0 {
		conditions = append(conditions, "route_score >= ?")
		args = append(args, filter.MinScore)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY route_score DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

// DeleteExpired removes recommendations past their expiry and returns how
// many were deleted
func (r *RecommendationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM route_recommendations WHERE expires_at <= ?`,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired recommendations: %w", err)
	}
	return res.RowsAffected()
}

func scanRecommendations(rows *sql.Rows) ([]*models.RouteRecommendation, error) {
	var recs []*models.RouteRecommendation
	for rows.Next() {
		var rec models.RouteRecommendation
		var expiresAt, createdAt string
		if err := rows.Scan(
			&rec.RouteUUID, &rec.Region,
			&rec.InputLengthKm, &rec.InputElevationGainM, &rec.InputTolerancePercent,
			&rec.RecommendedLengthKm, &rec.RecommendedElevationGainM,
			&rec.RouteShape, &rec.RouteName, &rec.TrailCount, &rec.RouteScore,
			&rec.RoutePath, &rec.RouteEdges, &rec.RouteNodes,
			&rec.RequestHash, &expiresAt, &rec.UsageCount, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
		rec.CreatedAt, _ = parseTimestamp(createdAt)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// parseTimestamp accepts both RFC3339 and SQLite's CURRENT_TIMESTAMP format
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
