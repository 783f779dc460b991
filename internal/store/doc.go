// Package store holds the current telemetry snapshot.
//
// The store is single-writer (the poller) / multi-reader. Snapshots are
// assembled and validated before Install, so the exclusive section only
// covers a reference swap; readers never wait for parsing cost.
package store
