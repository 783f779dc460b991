// Package upstream provides the HTTP client for the telemetry producer.
//
// Fetches are conditional: the client carries the last-seen snapshot id
// as an If-None-Match precondition so an unchanged snapshot costs a 304
// instead of a transfer and reparse.
package upstream
