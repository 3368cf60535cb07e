package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
)

// Manager tracks a set of sessions keyed by id, one of which may be active.
type Manager interface {
	ActiveSession(ctx context.Context) (*Session, error)
	SetActiveSession(ctx context.Context, s *Session) error
	ClearActiveSession(ctx context.Context) error
	Session(ctx context.Context, id int64) (*Session, error)
	SetSession(ctx context.Context, id int64, s *Session) error
	ClearSession(ctx context.Context, id int64) error
	Sessions(ctx context.Context) (map[int64]*Session, error)
}

// Key families used by the two managers TwitterKit creates.
const (
	UserPrefix     = "twittersession"
	UserActiveKey  = "active_twittersession"
	GuestPrefix    = "guestsession"
	GuestActiveKey = "active_guestsession"
)

// PersistedManager is a Manager backed by a Store. Each session is written to
// "{prefix}_{id}" and the active one additionally to the active key. State is
// restored from the store lazily, once, on first use.
type PersistedManager struct {
	store      Store
	serializer Serializer
	prefix     string
	activeKey  string
	logger     *slog.Logger

	restorePending atomic.Bool
	restoreMu      sync.Mutex

	// activeMu serializes writers so stored keys and memory change together.
	activeMu sync.Mutex
	active   atomic.Pointer[Session]

	sessionsMu sync.RWMutex
	sessions   map[int64]*Session
}

var _ Manager = (*PersistedManager)(nil)

// Option configures a PersistedManager.
type Option func(*PersistedManager)

func WithLogger(l *slog.Logger) Option {
	return func(m *PersistedManager) { m.logger = l }
}

func WithSerializer(s Serializer) Option {
	return func(m *PersistedManager) {
		if s != nil {
			m.serializer = s
		}
	}
}

// WithCipher seals every value written to the store.
func WithCipher(c Cipher) Option {
	return func(m *PersistedManager) {
		if c != nil {
			m.serializer = EncryptedSerializer{Next: m.serializer, Cipher: c}
		}
	}
}

// NewPersistedManager creates a manager over store using prefix for per-id keys
// and activeKey for the active session.
func NewPersistedManager(store Store, prefix, activeKey string, opts ...Option) *PersistedManager {
	m := &PersistedManager{
		store:      store,
		serializer: JSONSerializer{},
		prefix:     prefix,
		activeKey:  activeKey,
		sessions:   make(map[int64]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.OrDiscard(m.logger).With(logger.Component("session"), slog.String("prefix", prefix))
	m.restorePending.Store(true)
	return m
}

func (m *PersistedManager) key(id int64) string {
	return m.prefix + "_" + strconv.FormatInt(id, 10)
}

// Restore loads persisted state if it has not been loaded yet. Every accessor
// calls it; hosts may call it early to warm the manager in the background.
func (m *PersistedManager) Restore(ctx context.Context) error {
	if !m.restorePending.Load() {
		return nil
	}
	m.restoreMu.Lock()
	defer m.restoreMu.Unlock()
	if !m.restorePending.Load() {
		return nil
	}
	if err := m.restoreActive(ctx); err != nil {
		return err
	}
	if err := m.restoreSessions(ctx); err != nil {
		return err
	}
	m.restorePending.Store(false)
	m.logger.DebugContext(ctx, "sessions restored")
	return nil
}

func (m *PersistedManager) restoreActive(ctx context.Context) error {
	raw, err := m.store.Get(ctx, m.activeKey)
	if err != nil {
		return fmt.Errorf("session: restore active: %w", err)
	}
	if raw == nil {
		return nil
	}
	s, err := m.serializer.Unmarshal(raw)
	if err != nil {
		m.logger.DebugContext(ctx, "skipping undecodable active session", logger.Key(m.activeKey), logger.Error(err))
		return nil
	}
	m.sessionsMu.Lock()
	m.sessions[s.ID] = s
	m.sessionsMu.Unlock()
	m.active.Store(s)
	return nil
}

func (m *PersistedManager) restoreSessions(ctx context.Context) error {
	keys, err := m.store.Keys(ctx, m.prefix+"_")
	if err != nil {
		return fmt.Errorf("session: list sessions: %w", err)
	}
	for _, key := range keys {
		raw, err := m.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("session: restore %s: %w", key, err)
		}
		if raw == nil {
			continue
		}
		s, err := m.serializer.Unmarshal(raw)
		if err != nil {
			m.logger.DebugContext(ctx, "skipping undecodable session", logger.Key(key), logger.Error(err))
			continue
		}
		m.sessionsMu.Lock()
		m.sessions[s.ID] = s
		m.sessionsMu.Unlock()
		if err := m.adopt(ctx, s, raw); err != nil {
			return err
		}
	}
	return nil
}

func (m *PersistedManager) ActiveSession(ctx context.Context) (*Session, error) {
	if err := m.Restore(ctx); err != nil {
		return nil, err
	}
	return m.active.Load().clone(), nil
}

// SetActiveSession stores s and makes it active regardless of the current
// active session.
func (m *PersistedManager) SetActiveSession(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrInvalidSession
	}
	if err := m.Restore(ctx); err != nil {
		return err
	}
	return m.set(ctx, s.ID, s, true)
}

func (m *PersistedManager) ClearActiveSession(ctx context.Context) error {
	if err := m.Restore(ctx); err != nil {
		return err
	}
	if cur := m.active.Load(); cur != nil {
		return m.ClearSession(ctx, cur.ID)
	}
	return nil
}

func (m *PersistedManager) Session(ctx context.Context, id int64) (*Session, error) {
	if err := m.Restore(ctx); err != nil {
		return nil, err
	}
	m.sessionsMu.RLock()
	defer m.sessionsMu.RUnlock()
	return m.sessions[id].clone(), nil
}

// SetSession stores s under id. It becomes active only when no session is
// active or the active session has the same id.
func (m *PersistedManager) SetSession(ctx context.Context, id int64, s *Session) error {
	if s == nil {
		return ErrInvalidSession
	}
	if err := m.Restore(ctx); err != nil {
		return err
	}
	return m.set(ctx, id, s, false)
}

func (m *PersistedManager) set(ctx context.Context, id int64, s *Session, force bool) error {
	s = s.clone()
	raw, err := m.serializer.Marshal(s)
	if err != nil {
		return err
	}

	m.activeMu.Lock()
	defer m.activeMu.Unlock()

	cur := m.active.Load()
	activate := cur == nil || cur.ID == id || force
	if activate {
		if err := m.store.Set(ctx, m.activeKey, raw); err != nil {
			return fmt.Errorf("session: persist active: %w", err)
		}
	}
	if err := m.store.Set(ctx, m.key(id), raw); err != nil {
		if activate {
			m.revertActive(ctx, cur)
		}
		return fmt.Errorf("session: persist %d: %w", id, err)
	}

	m.sessionsMu.Lock()
	m.sessions[id] = s
	m.sessionsMu.Unlock()
	if activate {
		m.active.Store(s)
	}
	return nil
}

// revertActive puts prev back under the active key after a failed write.
// Callers hold activeMu.
func (m *PersistedManager) revertActive(ctx context.Context, prev *Session) {
	var err error
	if prev == nil {
		err = m.store.Delete(ctx, m.activeKey)
	} else {
		var raw []byte
		if raw, err = m.serializer.Marshal(prev); err == nil {
			err = m.store.Set(ctx, m.activeKey, raw)
		}
	}
	if err != nil {
		m.logger.WarnContext(ctx, "active session key left ahead of memory", logger.Key(m.activeKey), logger.Error(err))
	}
}

// adopt makes a restored session active when nothing else is.
func (m *PersistedManager) adopt(ctx context.Context, s *Session, raw []byte) error {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()

	if m.active.Load() != nil {
		return nil
	}
	if err := m.store.Set(ctx, m.activeKey, raw); err != nil {
		return fmt.Errorf("session: persist active: %w", err)
	}
	m.active.Store(s)
	return nil
}

// ClearSession forgets id, clearing the active session first when it has
// that id.
func (m *PersistedManager) ClearSession(ctx context.Context, id int64) error {
	if err := m.Restore(ctx); err != nil {
		return err
	}

	m.activeMu.Lock()
	defer m.activeMu.Unlock()

	if cur := m.active.Load(); cur != nil && cur.ID == id {
		if err := m.store.Delete(ctx, m.activeKey); err != nil {
			return fmt.Errorf("session: clear active: %w", err)
		}
		m.active.Store(nil)
	}
	if err := m.store.Delete(ctx, m.key(id)); err != nil {
		return fmt.Errorf("session: clear %d: %w", id, err)
	}
	m.sessionsMu.Lock()
	delete(m.sessions, id)
	m.sessionsMu.Unlock()
	return nil
}

// Sessions returns a snapshot; changing it does not affect the manager.
func (m *PersistedManager) Sessions(ctx context.Context) (map[int64]*Session, error) {
	if err := m.Restore(ctx); err != nil {
		return nil, err
	}
	m.sessionsMu.RLock()
	defer m.sessionsMu.RUnlock()
	out := make(map[int64]*Session, len(m.sessions))
	for id, s := range m.sessions {
		out[id] = s.clone()
	}
	return out, nil
}
