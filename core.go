package twitterkit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/dmitrymomot/twitterkit/pkg/api"
	"github.com/dmitrymomot/twitterkit/pkg/async"
	"github.com/dmitrymomot/twitterkit/pkg/cache"
	"github.com/dmitrymomot/twitterkit/pkg/guest"
	"github.com/dmitrymomot/twitterkit/pkg/identity"
	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/monitor"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
	"github.com/dmitrymomot/twitterkit/pkg/transport"
)

// Version is reported in the User-Agent of every request.
const Version = "1.0.0"

// MonitorCheckpointKey is the store key holding the time of the last session
// verification pass.
const MonitorCheckpointKey = "twitterkit_monitor_last_verification"

// Core owns every long-lived piece of the kit: session managers, token
// services, the guest provider, cached API clients and the session monitor.
// Construct one per process with New and release it with Close.
type Core struct {
	cfg    Config
	logger *slog.Logger
	base   http.RoundTripper

	backend backend

	sessions      *session.PersistedManager
	guestSessions *session.PersistedManager

	oauth1a *oauth.OAuth1aService
	oauth2  *oauth.OAuth2Service
	guest   *guest.Provider
	auth    *identity.AuthClient

	pool      *ants.Pool
	monitor   *monitor.Monitor
	lifecycle *monitor.Lifecycle

	clients *cache.LRU[clientKey, *api.Client]

	guestMu     sync.Mutex
	guestClient *api.Client

	closeOnce sync.Once
	closeErr  error
}

// clientKey includes the token so a new sign-in of the same user never reuses
// a client signing with revoked credentials.
type clientKey struct {
	id    int64
	token string
}

type Option func(*Core)

func WithLogger(l *slog.Logger) Option {
	return func(c *Core) { c.logger = l }
}

// WithStore uses st instead of the backend named in Config.Store. The caller
// owns st.
func WithStore(st session.Store) Option {
	return func(c *Core) {
		c.backend = backend{store: st, ping: alwaysHealthy, close: noop}
	}
}

// WithTransport sets the innermost RoundTripper of every client. Defaults to
// http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Core) { c.base = rt }
}

// New wires a Core from cfg. It connects the session store but does not read
// from it; call Bootstrap for that.
func New(ctx context.Context, cfg Config, opts ...Option) (*Core, error) {
	c := &Core{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDiscard(c.logger)
	if c.base == nil {
		c.base = http.DefaultTransport
	}

	creds := oauth.Credentials{ConsumerKey: cfg.ConsumerKey, ConsumerSecret: cfg.ConsumerSecret}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var err error
	if c.backend.store == nil {
		if c.backend, err = openStore(ctx, cfg, c.logger); err != nil {
			return nil, err
		}
	}

	if c.sessions, err = c.newManager(session.UserPrefix, session.UserActiveKey); err != nil {
		return nil, errors.Join(err, c.backend.close())
	}
	if c.guestSessions, err = c.newManager(session.GuestPrefix, session.GuestActiveKey); err != nil {
		return nil, errors.Join(err, c.backend.close())
	}

	// Token endpoints get logging but never the auth transports.
	oauthHTTP := &http.Client{Transport: transport.NewLogging(c.logger, c.base)}
	svcOpts := []oauth.Option{
		oauth.WithBaseURL(cfg.APIURL),
		oauth.WithHTTPClient(oauthHTTP),
		oauth.WithUserAgent(transport.UserAgentPrefix + Version),
		oauth.WithLogger(c.logger),
	}
	if c.oauth1a, err = oauth.NewOAuth1aService(creds, svcOpts...); err != nil {
		return nil, errors.Join(err, c.backend.close())
	}
	if c.oauth2, err = oauth.NewOAuth2Service(creds, svcOpts...); err != nil {
		return nil, errors.Join(err, c.backend.close())
	}

	c.guest = guest.NewProvider(c.guestSessions, c.oauth2, guest.WithLogger(c.logger))
	c.auth = identity.NewAuthClient(c.oauth1a, c.sessions, c, identity.WithLogger(c.logger))
	c.clients = cache.NewLRU[clientKey, *api.Client](max(cfg.ClientCacheSize, 1))

	workers := max(cfg.Workers, 1)
	if c.pool, err = ants.NewPool(workers); err != nil {
		return nil, errors.Join(err, c.backend.close())
	}
	c.monitor, err = monitor.New(c.sessions, monitor.NewAPIVerifier(c),
		monitor.WithPool(c.pool),
		monitor.WithConcurrency(workers),
		monitor.WithThreshold(cfg.VerifyInterval),
		monitor.WithCheckpoint(c.backend.store, MonitorCheckpointKey),
		monitor.WithLogger(c.logger),
	)
	if err != nil {
		c.pool.Release()
		return nil, errors.Join(err, c.backend.close())
	}
	c.lifecycle = monitor.NewLifecycle()
	return c, nil
}

func (c *Core) newManager(prefix, activeKey string) (*session.PersistedManager, error) {
	opts, err := managerOptions(c.cfg, prefix, c.logger)
	if err != nil {
		return nil, err
	}
	return session.NewPersistedManager(c.backend.store, prefix, activeKey, opts...), nil
}

// Bootstrap restores both session managers on the worker pool, then starts
// monitoring user sessions: on every Lifecycle start event, and on
// TWITTER_VERIFY_SCHEDULE when set. It finishes with one start event.
func (c *Core) Bootstrap(ctx context.Context) error {
	restore := func(m *session.PersistedManager) *async.Future[struct{}] {
		fut, resolve := async.NewPromise[struct{}]()
		if err := c.pool.Submit(func() { resolve(struct{}{}, m.Restore(ctx)) }); err != nil {
			resolve(struct{}{}, err)
		}
		return fut
	}
	if _, err := async.WaitAll(restore(c.sessions), restore(c.guestSessions)); err != nil {
		return errors.Join(ErrBootstrapFailed, err)
	}

	c.monitor.Observe(c.lifecycle)
	if c.cfg.VerifySchedule != "" {
		if err := c.monitor.Schedule(c.cfg.VerifySchedule); err != nil {
			return err
		}
	}
	c.lifecycle.Started(ctx)
	return nil
}

func (c *Core) Config() Config { return c.cfg }

// Healthcheck pings the session store backend.
func (c *Core) Healthcheck(ctx context.Context) error { return c.backend.ping(ctx) }

// SessionManager holds signed-in user sessions.
func (c *Core) SessionManager() session.Manager { return c.sessions }

// GuestSessionManager holds the guest session maintained by the provider.
func (c *Core) GuestSessionManager() session.Manager { return c.guestSessions }

func (c *Core) GuestSessionProvider() *guest.Provider { return c.guest }
func (c *Core) AuthClient() *identity.AuthClient      { return c.auth }
func (c *Core) OAuth1a() *oauth.OAuth1aService        { return c.oauth1a }
func (c *Core) OAuth2() *oauth.OAuth2Service          { return c.oauth2 }
func (c *Core) Monitor() *monitor.Monitor             { return c.monitor }

// Lifecycle is where hosts report that the user is active.
func (c *Core) Lifecycle() *monitor.Lifecycle { return c.lifecycle }

// CallbackAuthorizer returns a browser sign-in authorizer configured from
// TWITTER_CALLBACK_URL and the TWITTER_CALLBACK_ server settings.
func (c *Core) CallbackAuthorizer(opts ...identity.CallbackOption) *identity.CallbackServer {
	base := []identity.CallbackOption{
		identity.WithServerOptions(c.cfg.Callback.Options()...),
		identity.WithCallbackLogger(c.logger),
	}
	if c.cfg.CallbackURL != "" {
		base = append(base, identity.WithCallbackURL(c.cfg.CallbackURL))
	}
	return identity.NewCallbackServer(append(base, opts...)...)
}

// APIClient returns the client of the active user session, or the guest
// client when nobody is signed in.
func (c *Core) APIClient(ctx context.Context) (*api.Client, error) {
	s, err := c.sessions.ActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return c.GuestAPIClient(), nil
	}
	return c.APIClientFor(s)
}

// APIClientFor returns the cached client signing as s, creating it on first
// use.
func (c *Core) APIClientFor(s *session.Session) (*api.Client, error) {
	if s == nil {
		return nil, session.ErrInvalidSession
	}
	key := clientKey{id: s.ID, token: s.Token.Token}
	if client, ok := c.clients.Get(key); ok {
		return client, nil
	}

	// Built outside the cache lock so a wrong token kind is reported as an
	// error.
	rt, err := transport.NewOAuth1a(c.oauth1a.Signer(), s, transport.NewLogging(c.logger, c.base))
	if err != nil {
		return nil, err
	}
	return c.clients.GetOrCreate(key, func() *api.Client { return c.newAPIClient(rt) }), nil
}

// GuestAPIClient returns the single client authenticated with guest tokens.
func (c *Core) GuestAPIClient() *api.Client {
	c.guestMu.Lock()
	defer c.guestMu.Unlock()
	if c.guestClient == nil {
		c.guestClient = c.newAPIClient(transport.NewGuest(c.guest, transport.NewLogging(c.logger, c.base)))
	}
	return c.guestClient
}

// AddAPIClient registers a custom client for s. It reports false and changes
// nothing when s already has one.
func (c *Core) AddAPIClient(s *session.Session, client *api.Client) bool {
	if s == nil || client == nil {
		return false
	}
	return c.clients.PutIfAbsent(clientKey{id: s.ID, token: s.Token.Token}, client)
}

// AddGuestAPIClient registers a custom guest client unless one exists.
func (c *Core) AddGuestAPIClient(client *api.Client) bool {
	if client == nil {
		return false
	}
	c.guestMu.Lock()
	defer c.guestMu.Unlock()
	if c.guestClient != nil {
		return false
	}
	c.guestClient = client
	return true
}

func (c *Core) newAPIClient(rt http.RoundTripper) *api.Client {
	hc := &http.Client{Transport: transport.NewUserAgent(Version, rt)}
	return api.New(hc, api.WithBaseURL(c.cfg.APIURL), api.WithLogger(c.logger))
}

// Close stops monitoring, releases the worker pool and disconnects the store.
// It is safe to call more than once.
func (c *Core) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		if err := c.monitor.Close(); err != nil {
			errs = append(errs, err)
		}
		c.pool.Release()
		if err := c.backend.close(); err != nil {
			errs = append(errs, err)
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
