// Package simulator implements the upstream telemetry producer.
//
// A background loop regenerates a synthetic per-switch snapshot on a
// fixed interval; the HTTP handler serves it as CSV with an ETag
// identity token, honors If-None-Match with 304, and can inject faults
// (probabilistic 500s, slow responses) for resilience testing of the
// consumer.
package simulator
