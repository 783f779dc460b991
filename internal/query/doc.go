// Package query answers point and list lookups against the current
// snapshot.
//
// Only two error conditions cross this boundary: NotFound (unknown
// switch or metric) and Unavailable (no snapshot ever installed).
// Poll-time failures never surface here; they show up as growing age
// and failure counters in the stats report.
package query
