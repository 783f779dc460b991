// Package httpapi exposes the query service over HTTP.
//
// This layer owns the outcome-to-status mapping (NotFound -> 404,
// Unavailable -> 503) and transport concerns only; all lookup and
// staleness semantics live in the query service.
package httpapi
