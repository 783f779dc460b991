package query

import (
	"time"

	"github.com/fabricmon/telemetry/internal/model"
	"github.com/fabricmon/telemetry/internal/poller"
	"github.com/fabricmon/telemetry/internal/stats"
	"github.com/fabricmon/telemetry/internal/store"
)

// CounterSource exposes the poller's bookkeeping to the stats report.
type CounterSource interface {
	Counters() poller.Counters
}

// Service answers lookups against the current snapshot and reports
// operational stats. It only reads the store; every call times itself
// into the recorder on all exit paths.
type Service struct {
	store     *store.SnapshotStore
	recorder  *stats.Recorder
	poll      CounterSource
	startedAt time.Time
}

// NewService creates a query service over the given store and recorder.
func NewService(st *store.SnapshotStore, recorder *stats.Recorder, poll CounterSource) *Service {
	return &Service{
		store:     st,
		recorder:  recorder,
		poll:      poll,
		startedAt: time.Now(),
	}
}

// MetricValue is the result of a point lookup.
type MetricValue struct {
	SwitchID   string
	Metric     string
	Value      float64
	SnapshotID string
	Age        time.Duration
}

// GetMetric returns one switch's value for one metric from the current
// snapshot. Fails with ErrUnavailable before the first successful poll
// and with *NotFoundError for unknown switches or metrics.
func (s *Service) GetMetric(switchID, metric string) (MetricValue, error) {
	start := time.Now()
	defer func() {
		s.recorder.Record(stats.ClassGetMetric, time.Since(start))
	}()

	snap, age, ok := s.store.Read()
	if !ok {
		return MetricValue{}, ErrUnavailable
	}
	row, ok := snap.Rows[switchID]
	if !ok {
		return MetricValue{}, &NotFoundError{Kind: "switch_id", Name: switchID}
	}
	v, ok := row[metric]
	if !ok {
		return MetricValue{}, &NotFoundError{Kind: "metric", Name: metric}
	}

	return MetricValue{
		SwitchID:   switchID,
		Metric:     metric,
		Value:      v,
		SnapshotID: snap.SnapshotID,
		Age:        age,
	}, nil
}

// Listing is one consistent view of the full snapshot. No pagination;
// the whole table is returned.
type Listing struct {
	SnapshotID string
	Age        time.Duration
	Fields     []string
	Rows       map[string]model.MetricRow
}

// ListMetrics returns the entire current snapshot. Fails with
// ErrUnavailable before the first successful poll.
func (s *Service) ListMetrics() (Listing, error) {
	start := time.Now()
	defer func() {
		s.recorder.Record(stats.ClassListMetrics, time.Since(start))
	}()

	snap, age, ok := s.store.Read()
	if !ok {
		return Listing{}, ErrUnavailable
	}

	return Listing{
		SnapshotID: snap.SnapshotID,
		Age:        age,
		Fields:     snap.Fields,
		Rows:       snap.Rows,
	}, nil
}

// Staleness reports the current data age. ok is false while no snapshot
// has ever been installed.
func (s *Service) Staleness() (time.Duration, bool) {
	return s.store.Age()
}

// StatsReport combines per-class latency rollups with poller counters
// and process uptime.
type StatsReport struct {
	Uptime     time.Duration
	Poller     poller.Counters
	Operations map[stats.Class]stats.Rollup
}

// StatsReport builds the report at call time.
func (s *Service) StatsReport() StatsReport {
	ops := make(map[stats.Class]stats.Rollup, 3)
	for _, class := range []stats.Class{stats.ClassGetMetric, stats.ClassListMetrics, stats.ClassPollCycle} {
		ops[class] = s.recorder.Rollup(class)
	}

	var counters poller.Counters
	if s.poll != nil {
		counters = s.poll.Counters()
	}

	return StatsReport{
		Uptime:     time.Since(s.startedAt),
		Poller:     counters,
		Operations: ops,
	}
}
