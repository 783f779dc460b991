package model

import (
	"strings"
	"testing"
	"time"
)

func validSnapshot() *TabularSnapshot {
	return &TabularSnapshot{
		SnapshotID: "snap-1",
		CapturedAt: time.Now(),
		Fields:     []string{"bandwidth_gbps", "latency_us"},
		Rows: map[string]MetricRow{
			"sw-000": {"bandwidth_gbps": 122.4, "latency_us": 11.2},
			"sw-001": {"bandwidth_gbps": 98.1, "latency_us": 9.7},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *TabularSnapshot)
		wantErr string
	}{
		{
			name:   "valid snapshot",
			mutate: func(s *TabularSnapshot) {},
		},
		{
			name:    "empty field list",
			mutate:  func(s *TabularSnapshot) { s.Fields = nil },
			wantErr: "empty field list",
		},
		{
			name: "row missing a field",
			mutate: func(s *TabularSnapshot) {
				delete(s.Rows["sw-001"], "latency_us")
			},
			wantErr: "sw-001",
		},
		{
			name: "row with wrong field name",
			mutate: func(s *TabularSnapshot) {
				delete(s.Rows["sw-000"], "latency_us")
				s.Rows["sw-000"]["jitter_us"] = 1.0
			},
			wantErr: "missing field latency_us",
		},
		{
			name:   "empty rows are fine",
			mutate: func(s *TabularSnapshot) { s.Rows = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValue(t *testing.T) {
	s := validSnapshot()

	v, ok := s.Value("sw-000", "bandwidth_gbps")
	if !ok || v != 122.4 {
		t.Errorf("Value(sw-000, bandwidth_gbps) = %v, %v, want 122.4, true", v, ok)
	}

	if _, ok := s.Value("sw-999", "bandwidth_gbps"); ok {
		t.Error("Value for unknown switch should return ok=false")
	}
	if _, ok := s.Value("sw-000", "nope"); ok {
		t.Error("Value for unknown metric should return ok=false")
	}
}
