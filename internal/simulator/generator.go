package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/fabricmon/telemetry/internal/model"
)

// metricFields are the metrics emitted for every switch, in publish order.
var metricFields = []string{
	"bandwidth_gbps",
	"latency_us",
	"packet_errors",
	"cpu_util_pct",
	"mem_util_pct",
	"buffer_occupancy_pct",
	"egress_drops_per_s",
	"temperature_c",
}

// Generator produces synthetic telemetry snapshots. Each snapshot gets
// a fresh UUID identity token; content always changes between
// generations, so the token changing iff content changed holds.
type Generator struct {
	switches int
}

// NewGenerator creates a generator for the given fabric size.
func NewGenerator(switches int) *Generator {
	if switches < 1 {
		switches = 1
	}
	return &Generator{switches: switches}
}

// Next produces a fresh snapshot.
func (g *Generator) Next() *model.TabularSnapshot {
	rows := make(map[string]model.MetricRow, g.switches)
	for i := 0; i < g.switches; i++ {
		rows[fmt.Sprintf("sw-%03d", i)] = generateRow()
	}
	return &model.TabularSnapshot{
		SnapshotID: uuid.NewString(),
		CapturedAt: time.Now(),
		Fields:     slices.Clone(metricFields),
		Rows:       rows,
	}
}

// generateRow models one switch: mostly steady gaussian readings with
// occasional spikes, bursts and microbursts.
func generateRow() model.MetricRow {
	bw := math.Max(0, gauss(120, 15))

	lat := math.Max(1, gauss(10, 2))
	if rand.Float64() < 0.03 {
		lat = uniform(50, 150)
	}

	pktErrs := float64(poissonSmall(0.6))
	if rand.Float64() < 0.01 {
		pktErrs = float64(5 + rand.IntN(26))
	}

	cpu := clip(gauss(35, 10), 0, 100)
	if rand.Float64() < 0.05 {
		cpu = uniform(80, 100)
	}

	mem := clip(gauss(60, 15), 0, 100)

	buf := clip(gauss(30, 15), 0, 100)
	if rand.Float64() < 0.08 {
		buf = uniform(70, 100)
	}

	// Drops correlate loosely with buffer pressure.
	drops := float64(poissonSmall(1.0 + buf/100*0.5))
	if rand.Float64() < 0.02 {
		drops = uniform(100, 1000)
	}

	temp := clip(gauss(45, 3)+0.06*cpu, 30, 90)

	return model.MetricRow{
		"bandwidth_gbps":       round2(bw),
		"latency_us":           round2(lat),
		"packet_errors":        pktErrs,
		"cpu_util_pct":         round2(cpu),
		"mem_util_pct":         round2(mem),
		"buffer_occupancy_pct": round2(buf),
		"egress_drops_per_s":   round2(drops),
		"temperature_c":        round2(temp),
	}
}

func gauss(mean, stddev float64) float64 {
	return rand.NormFloat64()*stddev + mean
}

func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

// poissonSmall returns a small non-negative count (Knuth's method,
// fine for small lambda).
func poissonSmall(lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for p > l {
		k++
		p *= rand.Float64()
	}
	if k < 1 {
		return 0
	}
	return k - 1
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
