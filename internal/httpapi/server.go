package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/fabricmon/telemetry/internal/query"
	"github.com/fabricmon/telemetry/internal/stats"
	"github.com/fabricmon/telemetry/internal/store"
)

// Server routes HTTP requests to the query service.
type Server struct {
	svc    *query.Service
	store  *store.SnapshotStore
	logger *slog.Logger
}

// NewServer creates the HTTP surface for telemetryd.
func NewServer(svc *query.Service, st *store.SnapshotStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:    svc,
		store:  st,
		logger: logger,
	}
}

// Handler returns the full route table wrapped in access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry/GetMetric", s.handleGetMetric)
	mux.HandleFunc("/telemetry/ListMetrics", s.handleListMetrics)
	mux.HandleFunc("/telemetry/stream", s.handleStream)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)
	return s.accessLog(mux)
}

func (s *Server) handleGetMetric(w http.ResponseWriter, r *http.Request) {
	switchID := r.URL.Query().Get("switch_id")
	metric := r.URL.Query().Get("metric")
	if switchID == "" || metric == "" {
		writeError(w, http.StatusBadRequest, "switch_id and metric query parameters are required")
		return
	}

	got, err := s.svc.GetMetric(switchID, metric)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	w.Header().Set("ETag", got.SnapshotID)
	w.Header().Set("X-Data-Age-Ms", strconv.FormatInt(got.Age.Milliseconds(), 10))
	writeJSON(w, http.StatusOK, map[string]any{
		"switch_id":   got.SwitchID,
		"metric":      got.Metric,
		"value":       got.Value,
		"snapshot_id": got.SnapshotID,
		"age_ms":      got.Age.Milliseconds(),
	})
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	got, err := s.svc.ListMetrics()
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	// Flatten rows into one object per switch, in stable order.
	ids := make([]string, 0, len(got.Rows))
	for id := range got.Rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		item := make(map[string]any, 1+len(got.Fields))
		item["switch_id"] = id
		for _, f := range got.Fields {
			item[f] = got.Rows[id][f]
		}
		items = append(items, item)
	}

	w.Header().Set("ETag", got.SnapshotID)
	w.Header().Set("X-Data-Age-Ms", strconv.FormatInt(got.Age.Milliseconds(), 10))
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_id": got.SnapshotID,
		"age_ms":      got.Age.Milliseconds(),
		"fields":      got.Fields,
		"items":       items,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report := s.svc.StatsReport()

	poll := map[string]any{
		"last_cycle_ms":        report.Poller.LastCycle.Milliseconds(),
		"retry_count":          report.Poller.RetryCount,
		"consecutive_failures": report.Poller.ConsecutiveFailures,
	}
	if !report.Poller.LastSuccess.IsZero() {
		poll["last_success"] = report.Poller.LastSuccess.UTC().Format(time.RFC3339Nano)
	}

	ops := make(map[string]any, len(report.Operations))
	for class, rollup := range report.Operations {
		ops[string(class)] = rollupJSON(rollup)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_s":   int64(report.Uptime.Seconds()),
		"poll":       poll,
		"operations": ops,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// rollupJSON renders a rollup in milliseconds. An empty window reports
// only its count; there are no percentiles to report.
func rollupJSON(r stats.Rollup) map[string]any {
	if r.Count == 0 {
		return map[string]any{"count": 0}
	}
	return map[string]any{
		"count":  r.Count,
		"p50_ms": durationMS(r.P50),
		"p95_ms": durationMS(r.P95),
		"p99_ms": durationMS(r.P99),
		"max_ms": durationMS(r.Max),
	}
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	var nf *query.NotFoundError
	switch {
	case errors.Is(err, query.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "no data yet, try again shortly")
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	default:
		s.logger.Error("query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade work through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		ageMS := int64(-1)
		if age, ok := s.svc.Staleness(); ok {
			ageMS = age.Milliseconds()
		}
		s.logger.Info("access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"latency", time.Since(start),
			"age_ms", ageMS,
		)
	})
}
