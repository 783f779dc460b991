// Package model defines the shared data types for fabric telemetry snapshots.
//
// Conventions:
//   - Snapshot IDs: opaque string tokens assigned by the producer; a new
//     token means new content
//   - Timestamps: time.Time, producer-assigned capture instants
//   - Values: float64 metric readings, one per (switch, field) pair
package model
