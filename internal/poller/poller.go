package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fabricmon/telemetry/internal/stats"
	"github.com/fabricmon/telemetry/internal/store"
	"github.com/fabricmon/telemetry/internal/upstream"
)

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 1.5s)
	Timeout  time.Duration // Per-fetch timeout; must be shorter than Interval
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 1500 * time.Millisecond,
		Timeout:  time.Second,
	}
}

// Counters is a point-in-time copy of the poller's bookkeeping. Created
// at process start and mutated only by the poll loop; never reset.
type Counters struct {
	ConsecutiveFailures int
	RetryCount          int64 // Monotonically increasing failure total
	LastSuccess         time.Time
	LastAttempt         time.Time
	LastCycle           time.Duration
}

// Poller periodically fetches the producer snapshot and installs it
// into the store. It is the store's sole writer.
type Poller struct {
	cfg      Config
	client   *upstream.Client
	store    *store.SnapshotStore
	recorder *stats.Recorder
	logger   *slog.Logger

	// etag is the last-seen snapshot id; poll loop only.
	etag string

	mu       sync.Mutex
	counters Counters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, client *upstream.Client, st *store.SnapshotStore, recorder *stats.Recorder, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:      cfg,
		client:   client,
		store:    st,
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"timeout", p.cfg.Timeout,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Counters returns a copy of the poller's current bookkeeping.
func (p *Poller) Counters() Counters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.cycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.cycle()
		}
	}
}

// cycle performs one conditional fetch and resolves it to one of three
// outcomes: not-modified (re-confirm), modified (parse and install), or
// failure (count it, leave the store alone).
func (p *Poller) cycle() {
	start := time.Now()

	p.mu.Lock()
	p.counters.LastAttempt = start
	p.mu.Unlock()

	var parseDur, installDur time.Duration
	outcome := "failure"

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	payload, err := p.client.Fetch(ctx, p.etag)
	cancel()
	fetchDur := time.Since(start)

	switch {
	case err != nil:
		p.fail("fetch failed", err)

	case payload.NotModified:
		t0 := time.Now()
		if p.store.Confirm(t0) {
			installDur = time.Since(t0)
			p.succeed(t0)
			outcome = "not_modified"
		} else {
			// 304 with nothing installed: the precondition token is
			// bogus, drop it and refetch next cycle.
			p.etag = ""
			p.fail("not-modified response with empty store", nil)
		}

	default:
		t0 := time.Now()
		snap, perr := upstream.ParseSnapshot(payload)
		parseDur = time.Since(t0)
		if perr != nil {
			p.fail("snapshot rejected", perr)
			break
		}

		t0 = time.Now()
		p.store.Install(snap, t0)
		installDur = time.Since(t0)
		p.etag = snap.SnapshotID
		p.succeed(t0)
		outcome = "installed"
	}

	cycleDur := time.Since(start)
	p.recorder.Record(stats.ClassPollCycle, cycleDur)

	p.mu.Lock()
	p.counters.LastCycle = cycleDur
	retries := p.counters.RetryCount
	p.mu.Unlock()

	p.logger.Info("poll cycle",
		"outcome", outcome,
		"fetch", fetchDur,
		"parse", parseDur,
		"install", installDur,
		"cycle", cycleDur,
		"retry_count", retries,
	)
}

// fail counts a poll-time failure. Failures never surface to callers;
// they are observable only through counters and growing staleness.
func (p *Poller) fail(msg string, err error) {
	p.mu.Lock()
	p.counters.ConsecutiveFailures++
	p.counters.RetryCount++
	failures := p.counters.ConsecutiveFailures
	p.mu.Unlock()

	p.logger.Warn(msg,
		"err", err,
		"consecutive_failures", failures,
	)
}

func (p *Poller) succeed(at time.Time) {
	p.mu.Lock()
	p.counters.ConsecutiveFailures = 0
	p.counters.LastSuccess = at
	p.mu.Unlock()
}
