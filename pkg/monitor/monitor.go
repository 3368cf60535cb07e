package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

// DefaultConcurrency bounds how many sessions are verified at once.
const DefaultConcurrency = 4

// Monitor periodically verifies the managed user sessions so revoked
// credentials surface early. Verification runs off the caller's goroutine on
// an ants pool.
type Monitor struct {
	manager  session.Manager
	verifier Verifier
	state    *State
	logger   *slog.Logger
	now      func() time.Time

	pool        *ants.Pool
	ownsPool    bool
	concurrency int
	wg          sync.WaitGroup

	checkpoint    session.Store
	checkpointKey string
	restoreOnce   sync.Once

	mu   sync.Mutex
	cron *cron.Cron
}

type Option func(*Monitor)

func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithClock overrides the time source fed to the State.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithThreshold overrides DefaultThreshold.
func WithThreshold(d time.Duration) Option {
	return func(m *Monitor) { m.state.Threshold = d }
}

// WithPool runs verification on p. The caller keeps ownership of p.
func WithPool(p *ants.Pool) Option {
	return func(m *Monitor) { m.pool = p }
}

// WithCheckpoint keeps the time of the last pass under key in store, so a
// short-lived host such as a CLI does not verify on every start.
func WithCheckpoint(store session.Store, key string) Option {
	return func(m *Monitor) {
		m.checkpoint = store
		m.checkpointKey = key
	}
}

// WithConcurrency bounds parallel verify calls within one pass.
func WithConcurrency(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

func New(manager session.Manager, verifier Verifier, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		manager:     manager,
		verifier:    verifier,
		state:       &State{},
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.OrDiscard(m.logger).With(logger.Component("monitor"))

	if m.pool == nil {
		p, err := ants.NewPool(1)
		if err != nil {
			return nil, err
		}
		m.pool = p
		m.ownsPool = true
	}
	return m, nil
}

// State exposes the rate limiting state.
func (m *Monitor) State() *State { return m.state }

// TriggerVerificationIfNecessary starts a background pass when a user is
// signed in and the State allows it. It reports whether a pass was started.
func (m *Monitor) TriggerVerificationIfNecessary(ctx context.Context) bool {
	active, err := m.manager.ActiveSession(ctx)
	if err != nil {
		m.logger.DebugContext(ctx, "failed to read active session", logger.Error(err))
		return false
	}
	if active == nil {
		return false
	}
	m.restoreCheckpoint(ctx)
	if !m.state.BeginVerification(m.now()) {
		return false
	}

	bg := context.WithoutCancel(ctx)
	m.wg.Add(1)
	err = m.pool.Submit(func() {
		defer m.wg.Done()
		m.verifyAll(bg)
	})
	if err != nil {
		m.wg.Done()
		m.state.abort()
		m.logger.DebugContext(ctx, "failed to schedule verification", logger.Error(err))
		return false
	}
	return true
}

// verifyAll never fails: a session that does not verify is left for the API
// client to report on its next call.
func (m *Monitor) verifyAll(ctx context.Context) {
	defer func() {
		now := m.now()
		m.state.EndVerification(now)
		m.saveCheckpoint(ctx, now)
	}()

	sessions, err := m.manager.Sessions(ctx)
	if err != nil {
		m.logger.DebugContext(ctx, "failed to list sessions", logger.Error(err))
		return
	}

	start := m.now()
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for _, s := range sessions {
		g.Go(func() error {
			if err := m.verifier.Verify(ctx, s); err != nil {
				m.logger.DebugContext(ctx, "session verification failed",
					logger.SessionID(s.ID), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	m.logger.DebugContext(ctx, "sessions verified",
		slog.Int("count", len(sessions)), logger.Duration(m.now().Sub(start)))
}

// restoreCheckpoint loads the stored last pass once. A missing or unreadable
// value leaves the State as it is.
func (m *Monitor) restoreCheckpoint(ctx context.Context) {
	if m.checkpoint == nil {
		return
	}
	m.restoreOnce.Do(func() {
		raw, err := m.checkpoint.Get(ctx, m.checkpointKey)
		if err != nil || raw == nil {
			if err != nil {
				m.logger.DebugContext(ctx, "failed to read verification checkpoint", logger.Error(err))
			}
			return
		}
		last, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			m.logger.DebugContext(ctx, "skipping malformed verification checkpoint", logger.Error(err))
			return
		}
		m.state.Restore(last)
	})
}

func (m *Monitor) saveCheckpoint(ctx context.Context, at time.Time) {
	if m.checkpoint == nil {
		return
	}
	if err := m.checkpoint.Set(ctx, m.checkpointKey, []byte(at.UTC().Format(time.RFC3339Nano))); err != nil {
		m.logger.DebugContext(ctx, "failed to save verification checkpoint", logger.Error(err))
	}
}

// Observe triggers verification on every start event of l.
func (m *Monitor) Observe(l *Lifecycle) {
	l.OnStart(func(ctx context.Context) { m.TriggerVerificationIfNecessary(ctx) })
}

// Schedule triggers verification on a cron expression: five fields or a
// descriptor such as "@hourly". The State still applies, so the schedule only
// sets how often the check runs.
func (m *Monitor) Schedule(spec string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cron == nil {
		m.cron = cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		)))
		m.cron.Start()
	}
	_, err := m.cron.AddFunc(spec, func() {
		m.TriggerVerificationIfNecessary(context.Background())
	})
	if err != nil {
		return fmt.Errorf("monitor: invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Wait blocks until every started pass has finished.
func (m *Monitor) Wait() { m.wg.Wait() }

// Close stops the schedule, waits for running passes and releases the pool
// when the Monitor created it.
func (m *Monitor) Close() error {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}

	m.wg.Wait()
	if m.ownsPool {
		m.pool.Release()
	}
	return nil
}
