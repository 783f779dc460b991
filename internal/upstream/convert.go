package upstream

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fabricmon/telemetry/internal/model"
)

// rowKeyColumn is the first header cell of every snapshot body.
const rowKeyColumn = "switch_id"

// ParseSnapshot converts a fetched CSV payload into a TabularSnapshot.
// The shape is validated strictly: a non-empty field list, every row
// carrying a numeric value for every field. Any violation is an error;
// the poller treats it the same as a fetch failure.
func ParseSnapshot(p *Payload) (*model.TabularSnapshot, error) {
	r := csv.NewReader(bytes.NewReader(p.Body))
	r.FieldsPerRecord = -1 // row widths checked explicitly below

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty snapshot body")
	}

	header := records[0]
	if len(header) < 2 || header[0] != rowKeyColumn {
		return nil, fmt.Errorf("malformed header %v: want %q plus at least one metric", header, rowKeyColumn)
	}
	fields := header[1:]

	rows := make(map[string]model.MetricRow, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %q has %d columns, want %d", rec[0], len(rec), len(header))
		}
		row := make(model.MetricRow, len(fields))
		for i, name := range fields {
			v, err := strconv.ParseFloat(rec[1+i], 64)
			if err != nil {
				return nil, fmt.Errorf("row %q field %q: %w", rec[0], name, err)
			}
			row[name] = v
		}
		rows[rec[0]] = row
	}

	snap := &model.TabularSnapshot{
		SnapshotID: p.ETag,
		CapturedAt: p.CapturedAt,
		Fields:     fields,
		Rows:       rows,
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}
