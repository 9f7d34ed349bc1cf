package graph

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Row Helpers
// ============================================================================

func stringAt(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if str, ok := row[i].(string); ok {
		return str
	}
	return ""
}

func int64At(row []interface{}, i int) int64 {
	if i >= len(row) {
		return 0
	}
	return toInt64(row[i])
}

func float64At(row []interface{}, i int) float64 {
	if i >= len(row) || row[i] == nil {
		return 0.0
	}
	switch v := row[i].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0.0
}

func toInt64(val interface{}) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		var out int64
		if _, err := fmt.Sscanf(v, "%d", &out); err == nil {
			return out
		}
	}
	return 0
}

// parseSourceCounts decodes the JSON object stored in r.source_counts.
func parseSourceCounts(val interface{}) (SourceCounts, error) {
	switch v := val.(type) {
	case nil:
		return SourceCounts{}, nil
	case string:
		if v == "" {
			return SourceCounts{}, nil
		}
		var counts SourceCounts
		if err := json.Unmarshal([]byte(v), &counts); err != nil {
			return nil, fmt.Errorf("failed to decode source counts: %w", err)
		}
		return counts, nil
	case map[string]interface{}:
		counts := make(SourceCounts, len(v))
		for source, n := range v {
			counts[source] = int(toInt64(n))
		}
		return counts, nil
	}
	return nil, fmt.Errorf("unexpected source counts type %T", val)
}

// sourceCountRows turns (hash, source_counts) rows into a hash-keyed map.
func sourceCountRows(rows [][]interface{}) (map[int64]SourceCounts, error) {
	out := make(map[int64]SourceCounts, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		counts, err := parseSourceCounts(row[1])
		if err != nil {
			return nil, err
		}
		out[toInt64(row[0])] = counts
	}
	return out, nil
}

func int64sToInterfaces(hashes []int64) []interface{} {
	out := make([]interface{}, len(hashes))
	for i, h := range hashes {
		out[i] = h
	}
	return out
}
