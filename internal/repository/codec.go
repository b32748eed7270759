package repository

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// encodeLineString serializes a polyline as a GeoJSON LineString
func encodeLineString(ls orb.LineString) (string, error) {
	b, err := geojson.NewGeometry(ls).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode geometry: %w", err)
	}
	return string(b), nil
}

// decodeLineString parses a GeoJSON LineString column
func decodeLineString(s string) (orb.LineString, error) {
	g, err := geojson.UnmarshalGeometry([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}
	ls, ok := g.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("geometry is %s, expected LineString", g.Type)
	}
	return ls, nil
}

// encodeJSON serializes a value into a JSON text column
func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(b), nil
}

// decodeStrings parses a JSON string-array column
func decodeStrings(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("failed to decode json column: %w", err)
	}
	return out, nil
}

// decodeFloats parses a JSON float-array column
func decodeFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var out []float64
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("failed to decode json column: %w", err)
	}
	return out, nil
}
