package statemachine

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("statemachine: invalid transition")

// NoTransitionError is returned by Fire when the current state does not accept
// the event.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("statemachine: no transition from %q on %q", e.State, e.Event)
}
