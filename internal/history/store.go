package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

// timeLayout is the canonical timestamp format stored in reading rows.
const timeLayout = "2006-01-02 15:04:05"

// tableSpec maps a peripheral kind onto its readings table and the name
// of the value column within it.
type tableSpec struct {
	table  string
	column string
}

var kindTables = map[peripheral.Kind]tableSpec{
	peripheral.KindLEDControl:        {table: "led_brightness_data", column: "brightness"},
	peripheral.KindGasSensor:         {table: "gas_sensor_data", column: "gas_value"},
	peripheral.KindTemperatureSensor: {table: "temperature_sensor_data", column: "temperature"},
	peripheral.KindRelay:             {table: "relay_state_data", column: "state"},
}

// Mirror receives a copy of each stored reading, typically for export to
// a time-series backend. Implementations must not block.
type Mirror interface {
	WriteReading(kind, id string, value float64)
}

// Logger is the minimal logging interface the package depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store reads and writes the per-kind readings tables.
type Store struct {
	db     *sql.DB
	logger Logger
	mirror Mirror
}

// NewStore returns a store over the given database handle.
func NewStore(db *sql.DB, logger Logger) *Store {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{db: db, logger: logger}
}

// SetMirror attaches an export mirror. Pass nil to detach.
func (s *Store) SetMirror(m Mirror) {
	s.mirror = m
}

// RecordReading appends one reading at minute resolution. Kinds without
// a readings table are rejected.
func (s *Store) RecordReading(ctx context.Context, kind peripheral.Kind, id string, value float64) error {
	spec, ok := kindTables[kind]
	if !ok {
		return fmt.Errorf("history: no readings table for kind %q", kind)
	}

	// Table and column names come from the fixed kind map, never from
	// request input.
	query := fmt.Sprintf(
		"INSERT INTO %s (uuid, %s, timestamp, aggregation_level, aggregated) VALUES (?, ?, ?, 'minute', 0)",
		spec.table, spec.column,
	)
	if _, err := s.db.ExecContext(ctx, query, id, value, time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("failed to record reading: %w", err)
	}

	if s.mirror != nil {
		s.mirror.WriteReading(string(kind), id, value)
	}
	return nil
}

// Prune deletes readings older than the retention window from every
// readings table and reports how many rows were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(timeLayout)

	var total int64
	for _, spec := range kindTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", spec.table)
		res, err := s.db.ExecContext(ctx, query, cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", spec.table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// RunPruner deletes expired readings on a fixed interval until the
// context is cancelled. Intended to run as a goroutine from startup.
func (s *Store) RunPruner(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Prune(ctx, retention)
			if err != nil {
				s.logger.Error("reading prune failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("pruned expired readings", "rows", removed)
			}
		}
	}
}
