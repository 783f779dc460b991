package stats

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Class identifies which operation a latency sample belongs to.
type Class string

// Operation classes tracked by the recorder.
const (
	ClassGetMetric   Class = "GetMetric"
	ClassListMetrics Class = "ListMetrics"
	ClassPollCycle   Class = "PollCycle"
)

// DefaultCapacity is the per-class sample window size.
const DefaultCapacity = 1000

// Rollup is an on-demand aggregate over one class's sample window.
// A zero Count means the window is empty and the percentile fields
// carry no information.
type Rollup struct {
	Count int
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Recorder keeps the most recent latency samples per operation class.
// Many writers may Record concurrently; Rollup copies the window under
// the same lock before sorting, so a concurrent append may be included
// or excluded but never torn.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	rings    map[Class]*ring
}

// ring is a fixed-capacity FIFO; once full, the oldest sample is
// overwritten first.
type ring struct {
	buf   []time.Duration
	head  int
	count int
}

func (r *ring) push(d time.Duration) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = d
		r.count++
		return
	}
	r.buf[r.head] = d
	r.head = (r.head + 1) % len(r.buf)
}

// snapshot returns the window contents in insertion order.
func (r *ring) snapshot() []time.Duration {
	out := make([]time.Duration, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// NewRecorder creates a recorder with the given per-class window size.
// Non-positive capacities fall back to DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		capacity: capacity,
		rings:    make(map[Class]*ring),
	}
}

// Record appends one sample to the class's window, evicting the oldest
// sample once the window is full.
func (r *Recorder) Record(class Class, d time.Duration) {
	r.mu.Lock()
	rg := r.rings[class]
	if rg == nil {
		rg = &ring{buf: make([]time.Duration, r.capacity)}
		r.rings[class] = rg
	}
	rg.push(d)
	r.mu.Unlock()
}

// Len returns the number of samples currently held for the class.
func (r *Recorder) Len(class Class) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rg := r.rings[class]; rg != nil {
		return rg.count
	}
	return 0
}

// Rollup computes percentiles over the class's current window contents.
func (r *Recorder) Rollup(class Class) Rollup {
	r.mu.Lock()
	var samples []time.Duration
	if rg := r.rings[class]; rg != nil {
		samples = rg.snapshot()
	}
	r.mu.Unlock()

	if len(samples) == 0 {
		return Rollup{}
	}

	slices.Sort(samples)
	return Rollup{
		Count: len(samples),
		P50:   pick(samples, 0.50),
		P95:   pick(samples, 0.95),
		P99:   pick(samples, 0.99),
		Max:   samples[len(samples)-1],
	}
}

// pick selects the p-th percentile from an ascending-sorted window via
// idx = ceil(p*n) - 1, clamped to [0, n-1].
func pick(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
