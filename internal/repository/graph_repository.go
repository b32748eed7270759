package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/models"
)

// GraphRepository handles routing node and edge storage for one workspace
type GraphRepository struct {
	db *sql.DB
}

// NewGraphRepository creates a graph repository over a workspace database
func NewGraphRepository(db *sql.DB) *GraphRepository {
	return &GraphRepository{db: db}
}

// SaveGraph stores the full node and edge set in one transaction, replacing
// any previous content. Graphs are rebuilt wholesale, never patched
func (r *GraphRepository) SaveGraph(ctx context.Context, g *models.RoutingGraph) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM routing_edges"); err != nil {
			return fmt.Errorf("failed to clear routing edges: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM routing_nodes"); err != nil {
			return fmt.Errorf("failed to clear routing nodes: %w", err)
		}

		nodeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO routing_nodes (id, lat, lng, elevation, node_type, connected_trails)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare node insert: %w", err)
		}
		defer nodeStmt.Close()

		for _, n := range g.Nodes {
			trails, err := encodeJSON(n.ConnectedTrails)
			if err != nil {
				return err
			}
			if _, err := nodeStmt.ExecContext(ctx, n.ID, n.Lat, n.Lng, n.Elevation, n.NodeType, trails); err != nil {
				return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
			}
		}

		edgeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO routing_edges (id, from_node_id, to_node_id, trail_id, trail_name,
				length_m, elevation_gain_m, elevation_loss_m, geometry, elevations)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare edge insert: %w", err)
		}
		defer edgeStmt.Close()

		for _, e := range g.Edges {
			geom, err := encodeLineString(e.Geometry)
			if err != nil {
				return err
			}
			elevs, err := encodeJSON(e.Elevations)
			if err != nil {
				return err
			}
			if _, err := edgeStmt.ExecContext(ctx,
				e.ID, e.FromNodeID, e.ToNodeID, e.TrailID, e.TrailName,
				e.LengthM, e.ElevationGainM, e.ElevationLossM, geom, elevs,
			); err != nil {
				return fmt.Errorf("failed to insert edge %s: %w", e.ID, err)
			}
		}

		return nil
	})
}

// LoadGraph reads the stored node and edge set into an in-memory graph
func (r *GraphRepository) LoadGraph(ctx context.Context) (*models.RoutingGraph, error) {
	g := models.NewRoutingGraph()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lat, lng, elevation, node_type, connected_trails FROM routing_nodes
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n models.RoutingNode
		var trails string
		if err := rows.Scan(&n.ID, &n.Lat, &n.Lng, &n.Elevation, &n.NodeType, &trails); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if n.ConnectedTrails, err = decodeStrings(trails); err != nil {
			return nil, err
		}
		g.AddNode(&n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := r.db.QueryContext(ctx, `
		SELECT id, from_node_id, to_node_id, trail_id, trail_name,
			length_m, elevation_gain_m, elevation_loss_m, geometry, elevations
		FROM routing_edges
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e models.RoutingEdge
		var geom, elevs string
		if err := edgeRows.Scan(
			&e.ID, &e.FromNodeID, &e.ToNodeID, &e.TrailID, &e.TrailName,
			&e.LengthM, &e.ElevationGainM, &e.ElevationLossM, &geom, &elevs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		if e.Geometry, err = decodeLineString(geom); err != nil {
			return nil, err
		}
		if e.Elevations, err = decodeFloats(elevs); err != nil {
			return nil, err
		}
		g.AddEdge(&e)
	}

	return g, edgeRows.Err()
}

// Counts returns the stored node and edge counts
func (r *GraphRepository) Counts(ctx context.Context) (nodes, edges int, err error) {
	if err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM routing_nodes").Scan(&nodes); err != nil {
		return 0, 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	if err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM routing_edges").Scan(&edges); err != nil {
		return 0, 0, fmt.Errorf("failed to count edges: %w", err)
	}
	return nodes, edges, nil
}
