package simulator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fabricmon/telemetry/internal/model"
)

// Config holds simulator settings.
type Config struct {
	Switches      int           // Fabric size (default: 64)
	Interval      time.Duration // Snapshot regeneration interval (default: 10s)
	FaultErrorPct int           // Percentage of requests answered with 500
	FaultSlow     time.Duration // Extra delay injected on faults and ~20% of requests
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Switches: 64,
		Interval: 10 * time.Second,
	}
}

// Server generates snapshots on an interval and serves them over HTTP.
type Server struct {
	cfg    Config
	gen    *Generator
	logger *slog.Logger

	mu   sync.RWMutex
	snap *model.TabularSnapshot

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a simulator server with an initial snapshot already
// generated, so the first request never races the refresh loop.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gen := NewGenerator(cfg.Switches)
	return &Server{
		cfg:    cfg,
		gen:    gen,
		logger: logger,
		snap:   gen.Next(),
	}
}

// Start begins the snapshot refresh loop.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("simulator started",
		"switches", s.cfg.Switches,
		"interval", s.cfg.Interval,
		"fault_error_pct", s.cfg.FaultErrorPct,
	)

	return nil
}

// Stop shuts down the refresh loop.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("simulator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			snap := s.gen.Next()

			s.mu.Lock()
			s.snap = snap
			s.mu.Unlock()

			s.logger.Info("snapshot refreshed",
				"snapshot_id", snap.SnapshotID,
				"switches", len(snap.Rows),
				"tick", time.Since(start),
			)
		}
	}
}

// Handler returns the producer's HTTP surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/counters", s.handleCounters)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	return mux
}

func (s *Server) handleCounters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Fault injection: occasional 500s and jitter delays.
	if s.cfg.FaultErrorPct > 0 && rand.IntN(100) < s.cfg.FaultErrorPct {
		if s.cfg.FaultSlow > 0 {
			time.Sleep(s.cfg.FaultSlow)
		}
		s.logger.Warn("injecting fault", "fault", "500")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "injected failure"})
		return
	}
	if s.cfg.FaultSlow > 0 && rand.Float64() < 0.2 {
		time.Sleep(s.cfg.FaultSlow)
	}

	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	w.Header().Set("ETag", snap.SnapshotID)
	w.Header().Set("X-Snapshot-Ts", strconv.FormatInt(snap.CapturedAt.UnixMilli(), 10))
	w.Header().Set("Cache-Control", "no-store")

	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.SnapshotID {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if err := writeCSV(w, snap); err != nil {
		s.logger.Error("write snapshot", "err", err)
		return
	}

	s.logger.Info("serve counters",
		"snapshot_id", snap.SnapshotID,
		"switches", len(snap.Rows),
		"latency", time.Since(start),
	)
}

// writeCSV serializes the snapshot as a CSV matrix with a stable row
// order.
func writeCSV(w io.Writer, snap *model.TabularSnapshot) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 1+len(snap.Fields))
	header = append(header, "switch_id")
	header = append(header, snap.Fields...)
	if err := cw.Write(header); err != nil {
		return err
	}

	ids := make([]string, 0, len(snap.Rows))
	for id := range snap.Rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rec := make([]string, len(header))
	for _, id := range ids {
		rec[0] = id
		row := snap.Rows[id]
		for i, f := range snap.Fields {
			rec[1+i] = strconv.FormatFloat(row[f], 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
