package statemachine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit/pkg/statemachine"
)

type state string
type event string

const (
	idle    state = "idle"
	running state = "running"
	done    state = "done"
	failed  state = "failed"

	start  event = "start"
	finish event = "finish"
	fail   event = "fail"
)

func newMachine(t *testing.T, opts ...statemachine.Option[state, event]) *statemachine.Machine[state, event] {
	t.Helper()
	base := []statemachine.Option[state, event]{
		statemachine.WithTransition[state, event](start, running, idle),
		statemachine.WithTransition[state, event](finish, done, running),
		statemachine.WithTransition[state, event](fail, failed, idle, running),
		statemachine.WithTerminal[state, event](done, failed),
	}
	m, err := statemachine.New(idle, append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func TestMachine(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		m := newMachine(t)
		assert.Equal(t, idle, m.Current())
		assert.False(t, m.Terminal())

		to, err := m.Fire(start)
		require.NoError(t, err)
		assert.Equal(t, running, to)
		assert.False(t, m.Terminal())

		_, err = m.Fire(finish)
		require.NoError(t, err)
		assert.Equal(t, done, m.Current())
		assert.True(t, m.Terminal())
	})

	t.Run("undeclared event", func(t *testing.T) {
		m := newMachine(t)
		cur, err := m.Fire(finish)
		var nt *statemachine.NoTransitionError
		require.ErrorAs(t, err, &nt)
		assert.Equal(t, "idle", nt.State)
		assert.Equal(t, "finish", nt.Event)
		assert.Equal(t, idle, cur)
		assert.Equal(t, idle, m.Current())
	})

	t.Run("multiple sources", func(t *testing.T) {
		m := newMachine(t)
		_, err := m.Fire(fail)
		require.NoError(t, err)
		assert.Equal(t, failed, m.Current())
		assert.True(t, m.Terminal())

		m = newMachine(t)
		_, err = m.Fire(start)
		require.NoError(t, err)
		_, err = m.Fire(fail)
		require.NoError(t, err)
		assert.Equal(t, failed, m.Current())
	})

	t.Run("hooks observe transitions", func(t *testing.T) {
		var seen []string
		m := newMachine(t, statemachine.WithHook[state, event](func(from, to state, e event) {
			seen = append(seen, string(from)+">"+string(to)+":"+string(e))
		}))
		_, _ = m.Fire(start)
		_, _ = m.Fire(finish)
		assert.Equal(t, []string{"idle>running:start", "running>done:finish"}, seen)
	})

	t.Run("conflicting definition", func(t *testing.T) {
		_, err := statemachine.New(idle,
			statemachine.WithTransition[state, event](start, running, idle),
			statemachine.WithTransition[state, event](start, done, idle),
		)
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	})

	t.Run("no source state", func(t *testing.T) {
		_, err := statemachine.New(idle, statemachine.WithTransition[state, event](start, running))
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	})

	t.Run("concurrent fire commits once", func(t *testing.T) {
		m := newMachine(t)
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := m.Fire(start); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}
