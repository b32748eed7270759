package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DataDir   string // Directory holding staging workspace databases
	JWTSecret string

	// Graph construction tolerances (meters)
	NodeToleranceM      float64
	IntersectToleranceM float64
	NearMissToleranceM  float64
	MinTrailLengthM     float64

	// Route search bounds
	MaxSearchDepth      int
	MaxTolerancePercent float64
	MinRouteScore       float64
	MaxRoutesPerPattern int

	// Workspace housekeeping
	KeepWorkspaces int // Committed workspaces retained per region
}

// Load reads configuration from environment variables with defaults
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data/workspaces"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	return &Config{
		Port:      port,
		DataDir:   dataDir,
		JWTSecret: jwtSecret,

		NodeToleranceM:      envFloat("NODE_TOLERANCE_M", 2.0),
		IntersectToleranceM: envFloat("INTERSECT_TOLERANCE_M", 2.0),
		NearMissToleranceM:  envFloat("NEAR_MISS_TOLERANCE_M", 10.0),
		MinTrailLengthM:     envFloat("MIN_TRAIL_LENGTH_M", 5.0),

		MaxSearchDepth:      envInt("MAX_SEARCH_DEPTH", 8),
		MaxTolerancePercent: envFloat("MAX_TOLERANCE_PERCENT", 50.0),
		MinRouteScore:       envFloat("MIN_ROUTE_SCORE", 0.3),
		MaxRoutesPerPattern: envInt("MAX_ROUTES_PER_PATTERN", 10),

		KeepWorkspaces: envInt("KEEP_WORKSPACES", 3),
	}
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
