package query

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned while no snapshot has ever been installed,
// i.e. before the first successful poll.
var ErrUnavailable = errors.New("no telemetry data yet")

// NotFoundError reports a lookup for a switch or metric absent from the
// current snapshot.
type NotFoundError struct {
	Kind string // "switch_id" or "metric"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}
