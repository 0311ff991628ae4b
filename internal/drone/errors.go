package drone

import (
	"errors"
	"fmt"
)

// ErrResourceExhausted is returned when a consumption request exceeds the
// remaining spray level.
var ErrResourceExhausted = errors.New("resource exhausted")

// StateError reports an operation attempted in a flight state that does not
// allow it, such as moving while grounded or a double takeoff.
type StateError struct {
	Op    string
	State FlightState
}

func NewStateError(op string, state FlightState) *StateError {
	return &StateError{Op: op, State: state}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

// IsStateError reports whether err is a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
