// Package poller implements the background snapshot poller.
//
// The poller:
//   - Fetches the producer snapshot on a fixed interval
//   - Carries the last-seen snapshot id as a conditional-fetch precondition
//   - Installs new or re-confirmed content into the snapshot store
//   - Absorbs fetch, status and validation failures; the last good
//     snapshot keeps serving with growing age
//
// At most one fetch is in flight; a fetch exceeding the interval delays
// the next cycle rather than overlapping it. The interval is fixed with
// no backoff; a hardened variant would add jittered exponential backoff
// and a circuit breaker.
package poller
