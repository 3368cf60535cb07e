package guest_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit/pkg/guest"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

type mockRequester struct {
	mock.Mock
}

func (m *mockRequester) RequestGuestAuthToken(ctx context.Context) (oauth.Token, error) {
	args := m.Called(ctx)
	return args.Get(0).(oauth.Token), args.Error(1)
}

func newManager() *session.PersistedManager {
	return session.NewPersistedManager(session.NewMemoryStore(), session.GuestPrefix, session.GuestActiveKey)
}

func TestCurrentSession(t *testing.T) {
	t.Parallel()

	t.Run("requests a token when no session is active", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		m := newManager()
		req := &mockRequester{}
		tok := oauth.NewGuestToken("bearer", "access", "guest-1")
		req.On("RequestGuestAuthToken", mock.Anything).Return(tok, nil).Once()

		s, err := guest.NewProvider(m, req).CurrentSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, session.GuestSessionID, s.ID)
		assert.Equal(t, "guest-1", s.Token.GuestToken)

		active, err := m.ActiveSession(ctx)
		require.NoError(t, err)
		assert.True(t, active.Equal(s))
		req.AssertExpectations(t)
	})

	t.Run("reuses a valid session", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		m := newManager()
		existing, err := session.NewGuestSession(oauth.NewGuestToken("bearer", "access", "guest-1"))
		require.NoError(t, err)
		require.NoError(t, m.SetActiveSession(ctx, existing))
		req := &mockRequester{}

		s, err := guest.NewProvider(m, req).CurrentSession(ctx)
		require.NoError(t, err)
		assert.True(t, existing.Equal(s))
		req.AssertNotCalled(t, "RequestGuestAuthToken", mock.Anything)
	})

	t.Run("refreshes an expired session", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		m := newManager()
		existing, err := session.NewGuestSession(oauth.NewGuestToken("bearer", "access", "old"))
		require.NoError(t, err)
		require.NoError(t, m.SetActiveSession(ctx, existing))

		req := &mockRequester{}
		req.On("RequestGuestAuthToken", mock.Anything).Return(oauth.NewGuestToken("bearer", "access", "new"), nil).Once()
		later := func() time.Time { return time.Now().Add(oauth.GuestTokenLifetime + time.Minute) }

		s, err := guest.NewProvider(m, req, guest.WithClock(later)).CurrentSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "new", s.Token.GuestToken)
		req.AssertExpectations(t)
	})

	t.Run("clears the session when the request fails", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		m := newManager()
		existing, err := session.NewGuestSession(oauth.Token{Kind: oauth.KindGuest, TokenType: "bearer", AccessToken: "a", GuestToken: "g"})
		require.NoError(t, err)
		require.NoError(t, m.SetActiveSession(ctx, existing))

		req := &mockRequester{}
		req.On("RequestGuestAuthToken", mock.Anything).Return(oauth.Token{}, errors.New("boom")).Once()

		s, err := guest.NewProvider(m, req).CurrentSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, s)

		stored, err := m.Session(ctx, session.GuestSessionID)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("clears the session when the caller gives up", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		m := newManager()

		block := make(chan struct{})
		t.Cleanup(func() { close(block) })
		req := &mockRequester{}
		req.On("RequestGuestAuthToken", mock.Anything).
			Run(func(mock.Arguments) { <-block }).
			Return(oauth.Token{}, context.Canceled)

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		s, err := guest.NewProvider(m, req).CurrentSession(ctx)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, context.Canceled)

		stored, serr := m.Session(context.Background(), session.GuestSessionID)
		require.NoError(t, serr)
		assert.Nil(t, stored)
	})

	t.Run("concurrent callers share one refresh", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		m := newManager()
		req := &mockRequester{}
		req.On("RequestGuestAuthToken", mock.Anything).Return(oauth.NewGuestToken("bearer", "access", "shared"), nil).Once()
		p := guest.NewProvider(m, req)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := p.CurrentSession(ctx)
				assert.NoError(t, err)
				if assert.NotNil(t, s) {
					assert.Equal(t, "shared", s.Token.GuestToken)
				}
			}()
		}
		wg.Wait()
		req.AssertNumberOfCalls(t, "RequestGuestAuthToken", 1)
	})
}

func TestRefreshCurrentSession(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*session.PersistedManager, *session.Session) {
		t.Helper()
		m := newManager()
		s, err := session.NewGuestSession(oauth.NewGuestToken("bearer", "access", "current"))
		require.NoError(t, err)
		require.NoError(t, m.SetActiveSession(context.Background(), s))
		return m, s
	}

	t.Run("refreshes when the expired session is the active one", func(t *testing.T) {
		t.Parallel()
		m, current := setup(t)
		req := &mockRequester{}
		req.On("RequestGuestAuthToken", mock.Anything).Return(oauth.NewGuestToken("bearer", "access", "next"), nil).Once()

		// Rebuilt from request headers: no creation time, different case.
		expired := &session.Session{Token: oauth.Token{
			Kind:        oauth.KindGuest,
			TokenType:   "Bearer",
			AccessToken: current.Token.AccessToken,
			GuestToken:  current.Token.GuestToken,
		}}

		s, err := guest.NewProvider(m, req).RefreshCurrentSession(context.Background(), expired)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "next", s.Token.GuestToken)
		req.AssertExpectations(t)
	})

	t.Run("returns the active session when already refreshed", func(t *testing.T) {
		t.Parallel()
		m, current := setup(t)
		req := &mockRequester{}
		stale := &session.Session{Token: oauth.NewGuestToken("bearer", "access", "stale")}

		s, err := guest.NewProvider(m, req).RefreshCurrentSession(context.Background(), stale)
		require.NoError(t, err)
		assert.True(t, current.Equal(s))
		req.AssertNotCalled(t, "RequestGuestAuthToken", mock.Anything)
	})

	t.Run("nil expired session never refreshes", func(t *testing.T) {
		t.Parallel()
		m, current := setup(t)
		req := &mockRequester{}

		s, err := guest.NewProvider(m, req).RefreshCurrentSession(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, current.Equal(s))
		req.AssertNotCalled(t, "RequestGuestAuthToken", mock.Anything)
	})
}

func TestSameCredentials(t *testing.T) {
	t.Parallel()

	a := oauth.NewGuestToken("bearer", "access", "guest")
	b := oauth.Token{Kind: oauth.KindGuest, TokenType: "BEARER", AccessToken: "access", GuestToken: "guest"}
	assert.True(t, guest.SameCredentials(a, b))

	b.GuestToken = "other"
	assert.False(t, guest.SameCredentials(a, b))
}
