package statemachine

import (
	"fmt"
	"sync"
)

// Hook observes a committed transition. Hooks run after the state changes,
// outside the machine lock, in registration order.
type Hook[S, E comparable] func(from, to S, event E)

// Machine is a concurrency-safe finite state machine over comparable state and
// event types. Transitions are declared up front; firing an undeclared event
// returns a *NoTransitionError and leaves the state unchanged.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	current     S
	transitions map[S]map[E]S
	terminal    map[S]struct{}
	hooks       []Hook[S, E]
}

// New builds a machine starting in initial.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		current:     initial,
		transitions: make(map[S]map[E]S),
		terminal:    make(map[S]struct{}),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on an invalid definition.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Terminal reports whether the current state was declared terminal.
func (m *Machine[S, E]) Terminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.terminal[m.current]
	return ok
}

// Fire moves the machine along the transition declared for event.
func (m *Machine[S, E]) Fire(event E) (S, error) {
	m.mu.Lock()
	from := m.current
	to, ok := m.transitions[from][event]
	if !ok {
		m.mu.Unlock()
		return from, &NoTransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	m.current = to
	hooks := m.hooks
	m.mu.Unlock()

	for _, h := range hooks {
		h(from, to, event)
	}
	return to, nil
}
