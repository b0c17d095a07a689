package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

// Aggregation levels selected from the width of the requested range.
const (
	LevelMinute = "minute"
	LevelHourly = "hourly"
	LevelDaily  = "daily"
)

// AggregateRequest is the wire shape of an aggregation query.
type AggregateRequest struct {
	DateStart string `json:"dateStart"`
	DateEnd   string `json:"dateEnd"`
	Type      string `json:"type"`
}

// acceptedLayouts are the timestamp formats aggregation requests may use.
var acceptedLayouts = []string{timeLayout, time.RFC3339, "2006-01-02"}

// Aggregate validates raw as an aggregation request and answers it for
// the peripheral with the given id. The result is always a JSON
// document: rows on success, an error object on a bad request and a
// structured no-data message when the range is empty. The caller never
// has to distinguish these shapes before forwarding them.
func (s *Store) Aggregate(ctx context.Context, id, raw string) string {
	var req AggregateRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return errorDoc("invalid aggregation request")
	}
	if req.DateStart == "" || req.DateEnd == "" || req.Type == "" {
		return errorDoc("dateStart, dateEnd and type are required")
	}

	start, err := parseTimestamp(req.DateStart)
	if err != nil {
		return errorDoc(fmt.Sprintf("invalid dateStart: %s", req.DateStart))
	}
	end, err := parseTimestamp(req.DateEnd)
	if err != nil {
		return errorDoc(fmt.Sprintf("invalid dateEnd: %s", req.DateEnd))
	}
	if end.Before(start) {
		return errorDoc("dateEnd must not precede dateStart")
	}

	spec, ok := kindTables[peripheral.Kind(strings.TrimSpace(req.Type))]
	if !ok {
		return errorDoc(fmt.Sprintf("no readings table for type: %s", req.Type))
	}

	level := bucketLevel(end.Sub(start))
	rows, err := s.queryReadings(ctx, spec, id, start, end, level)
	if err != nil {
		s.logger.Error("aggregation query failed", "peripheral_id", id, "table", spec.table, "error", err)
		return errorDoc("aggregation query failed")
	}
	if len(rows) == 0 {
		return noDataDoc(level)
	}

	out, err := json.Marshal(rows)
	if err != nil {
		s.logger.Error("failed to encode aggregation result", "error", err)
		return errorDoc("aggregation query failed")
	}
	return string(out)
}

// bucketLevel picks the aggregation resolution for a query span: under
// three hours reads minute rows, under three days hourly rollups, and
// anything wider daily rollups.
func bucketLevel(span time.Duration) string {
	switch {
	case span < 3*time.Hour:
		return LevelMinute
	case span < 72*time.Hour:
		return LevelHourly
	default:
		return LevelDaily
	}
}

func (s *Store) queryReadings(ctx context.Context, spec tableSpec, id string, start, end time.Time, level string) ([]map[string]any, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE uuid = ? AND timestamp BETWEEN ? AND ? AND aggregation_level = ? ORDER BY timestamp",
		spec.table,
	)
	rows, err := s.db.QueryContext(ctx, query, id, start.Format(timeLayout), end.Format(timeLayout), level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			switch col {
			case "id", "uuid", "aggregation_level", "aggregated":
				// Internal bookkeeping columns stay out of responses.
				continue
			}
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("history: unparseable timestamp %q", value)
}

func errorDoc(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}

func noDataDoc(level string) string {
	out, _ := json.Marshal(map[string]any{
		"message": fmt.Sprintf("no %s readings found for the requested range", level),
		"data":    []any{},
	})
	return string(out)
}
