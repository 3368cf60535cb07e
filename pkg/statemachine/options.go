package statemachine

import "fmt"

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// WithTransition declares that event moves the machine from each of from to to.
func WithTransition[S, E comparable](event E, to S, from ...S) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if len(from) == 0 {
			return fmt.Errorf("%w: event %v has no source state", ErrInvalidTransition, event)
		}
		for _, f := range from {
			events, ok := m.transitions[f]
			if !ok {
				events = make(map[E]S)
				m.transitions[f] = events
			}
			if prev, dup := events[event]; dup && prev != to {
				return fmt.Errorf("%w: %v on %v already leads to %v", ErrInvalidTransition, f, event, prev)
			}
			events[event] = to
		}
		return nil
	}
}

// WithTerminal marks states that end the machine's lifecycle.
func WithTerminal[S, E comparable](states ...S) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for _, s := range states {
			m.terminal[s] = struct{}{}
		}
		return nil
	}
}

// WithHook registers a transition observer.
func WithHook[S, E comparable](h Hook[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
		return nil
	}
}
