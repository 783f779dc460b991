// Package stats implements the rolling latency recorder.
//
// One fixed-capacity ring buffer per operation class keeps the most
// recent samples; rollups (p50/p95/p99/max/count) are computed on
// demand over a point-in-time copy so aggregation never blocks writers
// for the cost of sorting.
package stats
