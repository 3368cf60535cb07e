package guest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/twitterkit/pkg/async"
	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

// TokenRequester obtains a fresh guest token. *oauth.OAuth2Service satisfies it.
type TokenRequester interface {
	RequestGuestAuthToken(ctx context.Context) (oauth.Token, error)
}

// Provider hands out the active guest session, refreshing it when it is
// missing or known to be expired.
type Provider struct {
	mu        sync.Mutex
	manager   session.Manager
	requester TokenRequester
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Provider)

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProvider(manager session.Manager, requester TokenRequester, opts ...Option) *Provider {
	p := &Provider{
		manager:   manager,
		requester: requester,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logger.OrDiscard(p.logger).With(logger.Component("guest"))
	return p
}

// CurrentSession returns the active guest session. A missing or expired session
// is refreshed first; the result is nil when the refresh failed.
func (p *Provider) CurrentSession(ctx context.Context) (*session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.manager.ActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if s != nil && !s.Token.IsExpired(p.now()) {
		return s, nil
	}
	p.refresh(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.manager.ActiveSession(ctx)
}

// RefreshCurrentSession refreshes only when expired still holds the credentials
// of the active session. Otherwise someone else already refreshed and the
// active session is returned as is.
func (p *Provider) RefreshCurrentSession(ctx context.Context, expired *session.Session) (*session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.manager.ActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if expired != nil && current != nil && SameCredentials(expired.Token, current.Token) {
		p.refresh(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return p.manager.ActiveSession(ctx)
}

// refresh must be called with p.mu held.
func (p *Provider) refresh(ctx context.Context) {
	p.logger.DebugContext(ctx, "refreshing expired guest session")

	fut := async.Go(ctx, p.requester.RequestGuestAuthToken)
	tok, err := fut.AwaitContext(ctx)
	if err == nil {
		var s *session.Session
		if s, err = session.NewGuestSession(tok); err == nil {
			err = p.manager.SetActiveSession(ctx, s)
		}
	}
	if err == nil {
		return
	}

	p.logger.DebugContext(ctx, "guest session refresh failed", logger.Error(err))
	// ctx may already be done; clearing must still reach the store.
	if cerr := p.manager.ClearSession(context.WithoutCancel(ctx), session.GuestSessionID); cerr != nil {
		p.logger.ErrorContext(ctx, "failed to clear guest session", logger.Error(cerr))
	}
}

// SameCredentials reports whether two guest tokens carry the same bearer and
// guest token. Creation time is ignored and the token type compares
// case-insensitively, since a token rebuilt from request headers has neither.
func SameCredentials(a, b oauth.Token) bool {
	return a.AccessToken == b.AccessToken &&
		a.GuestToken == b.GuestToken &&
		strings.EqualFold(a.TokenType, b.TokenType)
}
