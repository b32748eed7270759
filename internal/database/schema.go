package database

import (
	"database/sql"
	"fmt"
)

// workspaceSchema is the full table set of one staging workspace. A
// workspace is created whole and dropped whole; there is no migration chain
// because intermediate data never outlives its run
const workspaceSchema = `
CREATE TABLE IF NOT EXISTS workspace_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trails (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	region TEXT NOT NULL,
	geometry TEXT NOT NULL,           -- GeoJSON LineString
	elevations TEXT NOT NULL,         -- JSON array, one entry per vertex
	length_m REAL NOT NULL DEFAULT 0,
	elevation_gain_m REAL NOT NULL DEFAULT 0,
	elevation_loss_m REAL NOT NULL DEFAULT 0,
	max_elevation_m REAL,
	min_elevation_m REAL,
	avg_elevation_m REAL,
	surface TEXT,
	trail_type TEXT,
	difficulty TEXT,
	min_lon REAL, min_lat REAL, max_lon REAL, max_lat REAL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trail_segments (
	id TEXT PRIMARY KEY,
	parent_trail_id TEXT NOT NULL,
	seq_no INTEGER NOT NULL,
	name TEXT NOT NULL,
	region TEXT NOT NULL,
	geometry TEXT NOT NULL,
	elevations TEXT NOT NULL,
	length_m REAL NOT NULL DEFAULT 0,
	elevation_gain_m REAL NOT NULL DEFAULT 0,
	elevation_loss_m REAL NOT NULL DEFAULT 0,
	surface TEXT,
	trail_type TEXT,
	difficulty TEXT,
	min_lon REAL, min_lat REAL, max_lon REAL, max_lat REAL
);

CREATE TABLE IF NOT EXISTS intersection_points (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lng REAL NOT NULL,
	lat REAL NOT NULL,
	elevation REAL NOT NULL DEFAULT 0,
	trail_ids TEXT NOT NULL,          -- JSON array
	trail_names TEXT,
	node_type TEXT NOT NULL,          -- intersection, endpoint or near-miss
	distance_m REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS routing_nodes (
	id TEXT PRIMARY KEY,
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	elevation REAL NOT NULL DEFAULT 0,
	node_type TEXT NOT NULL,
	connected_trails TEXT NOT NULL    -- JSON array of trail ids
);

CREATE TABLE IF NOT EXISTS routing_edges (
	id TEXT PRIMARY KEY,
	from_node_id TEXT NOT NULL REFERENCES routing_nodes(id),
	to_node_id TEXT NOT NULL REFERENCES routing_nodes(id),
	trail_id TEXT NOT NULL,
	trail_name TEXT,
	length_m REAL NOT NULL DEFAULT 0,
	elevation_gain_m REAL NOT NULL DEFAULT 0,
	elevation_loss_m REAL NOT NULL DEFAULT 0,
	geometry TEXT NOT NULL,
	elevations TEXT
);

CREATE TABLE IF NOT EXISTS route_recommendations (
	route_uuid TEXT PRIMARY KEY,
	region TEXT NOT NULL,
	input_length_km REAL NOT NULL,
	input_elevation_gain_m REAL NOT NULL,
	input_tolerance_percent REAL NOT NULL,
	recommended_length_km REAL NOT NULL,
	recommended_elevation_gain_m REAL NOT NULL,
	route_shape TEXT NOT NULL,
	route_name TEXT NOT NULL,
	trail_count INTEGER NOT NULL DEFAULT 0,
	route_score REAL NOT NULL DEFAULT 0,
	route_path TEXT NOT NULL,         -- GeoJSON MultiLineString
	route_edges TEXT NOT NULL,        -- JSON array of edge ids
	route_nodes TEXT NOT NULL,        -- JSON array of node ids
	request_hash TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_segments_parent ON trail_segments(parent_trail_id);
CREATE INDEX IF NOT EXISTS idx_edges_from ON routing_edges(from_node_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON routing_edges(to_node_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_hash ON route_recommendations(request_hash);
`

// CreateWorkspaceSchema creates all workspace tables on a fresh database
func CreateWorkspaceSchema(db *sql.DB) error {
	if _, err := db.Exec(workspaceSchema); err != nil {
		return fmt.Errorf("failed to create workspace schema: %w", err)
	}
	return nil
}
