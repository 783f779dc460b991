package model

import (
	"fmt"
	"time"
)

// MetricRow maps metric field names to values for a single switch.
type MetricRow map[string]float64

// TabularSnapshot is one complete set of per-switch metric values as
// published by the upstream producer. Snapshots are immutable once
// constructed; consumers share them by reference.
type TabularSnapshot struct {
	SnapshotID string               // Opaque version token; changes iff content changed
	CapturedAt time.Time            // Producer-assigned capture instant
	Fields     []string             // Metric names, identical for every row
	Rows       map[string]MetricRow // switch_id -> metric -> value
}

// Validate checks the snapshot shape: a non-empty field list and a value
// for every field in every row.
func (s *TabularSnapshot) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("snapshot %s: empty field list", s.SnapshotID)
	}
	for sw, row := range s.Rows {
		if len(row) != len(s.Fields) {
			return fmt.Errorf("snapshot %s: row %s has %d values, want %d", s.SnapshotID, sw, len(row), len(s.Fields))
		}
		for _, f := range s.Fields {
			if _, ok := row[f]; !ok {
				return fmt.Errorf("snapshot %s: row %s missing field %s", s.SnapshotID, sw, f)
			}
		}
	}
	return nil
}

// Value returns the reading for the given switch and metric.
func (s *TabularSnapshot) Value(switchID, metric string) (float64, bool) {
	row, ok := s.Rows[switchID]
	if !ok {
		return 0, false
	}
	v, ok := row[metric]
	return v, ok
}
