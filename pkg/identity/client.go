package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/twitterkit/pkg/api"
	"github.com/dmitrymomot/twitterkit/pkg/async"
	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

// APIClientProvider returns a client signing as s.
type APIClientProvider interface {
	APIClientFor(s *session.Session) (*api.Client, error)
}

// AuthClient signs users in and stores the result as the active session.
type AuthClient struct {
	service TokenService
	manager session.Manager
	clients APIClientProvider
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

type ClientOption func(*AuthClient)

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *AuthClient) { c.logger = l }
}

func NewAuthClient(service TokenService, manager session.Manager, clients APIClientProvider, opts ...ClientOption) *AuthClient {
	c := &AuthClient{service: service, manager: manager, clients: clients}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDiscard(c.logger).With(logger.Component("auth_client"))
	return c
}

// Authorize runs one sign-in flow with a. Only one flow may run at a time;
// others fail with ErrAuthorizeInProgress.
func (c *AuthClient) Authorize(ctx context.Context, a Authorizer) (*session.Session, error) {
	ctx, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer c.end()

	resp, err := NewController(c.service, WithControllerLogger(c.logger)).Run(ctx, a)
	if err != nil {
		c.logger.ErrorContext(ctx, "authorization completed with an error", logger.Error(err))
		return nil, err
	}

	s, err := session.NewTwitterSession(resp.Token, resp.UserID, resp.UserName)
	if err != nil {
		return nil, err
	}
	if err := c.manager.SetActiveSession(context.WithoutCancel(ctx), s); err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "authorization completed successfully",
		logger.SessionID(s.ID), logger.UserName(s.UserName))
	return s, nil
}

// AuthorizeAsync runs Authorize in the background.
func (c *AuthClient) AuthorizeAsync(ctx context.Context, a Authorizer) *async.Future[*session.Session] {
	return async.Go(ctx, func(ctx context.Context) (*session.Session, error) {
		return c.Authorize(ctx, a)
	})
}

// CancelAuthorize ends the running flow, if any, with oauth.ErrCanceled.
func (c *AuthClient) CancelAuthorize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// InProgress reports whether a flow is running.
func (c *AuthClient) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *AuthClient) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil, ErrAuthorizeInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return ctx, nil
}

func (c *AuthClient) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// RequestEmail returns the email of s, or "" when the app lacks the email
// permission or the user has none.
func (c *AuthClient) RequestEmail(ctx context.Context, s *session.Session) (string, error) {
	client, err := c.clients.APIClientFor(s)
	if err != nil {
		return "", err
	}
	u, err := client.Accounts().VerifyCredentials(ctx, api.VerifyCredentialsParams{
		IncludeEntities: api.Bool(false),
		SkipStatus:      api.Bool(false),
		IncludeEmail:    api.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
