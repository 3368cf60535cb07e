package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/twitterkit/pkg/httpserver"
	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
)

// DefaultCallbackPath is served when no callback URL is configured.
const DefaultCallbackPath = "/callback"

// CallbackServer receives the OAuth redirect on a loopback listener.
type CallbackServer struct {
	callbackURL string
	serverOpts  []httpserver.Option
	open        func(string) error
	out         io.Writer
	logger      *slog.Logger

	mu      sync.Mutex
	srv     *httpserver.Server
	results chan callbackResult
}

type callbackResult struct {
	token    string
	verifier string
	err      error
}

var (
	_ Authorizer = (*CallbackServer)(nil)
	_ io.Closer  = (*CallbackServer)(nil)
)

type CallbackOption func(*CallbackServer)

// WithCallbackURL fixes the callback, e.g. one registered with the app. The
// server listens on its host and path.
func WithCallbackURL(u string) CallbackOption {
	return func(s *CallbackServer) { s.callbackURL = u }
}

func WithServerOptions(opts ...httpserver.Option) CallbackOption {
	return func(s *CallbackServer) { s.serverOpts = append(s.serverOpts, opts...) }
}

// WithBrowser opens the authorize page with open, typically OpenBrowser.
func WithBrowser(open func(string) error) CallbackOption {
	return func(s *CallbackServer) { s.open = open }
}

// WithOutput is where the authorize URL is printed.
func WithOutput(w io.Writer) CallbackOption {
	return func(s *CallbackServer) { s.out = w }
}

func WithCallbackLogger(l *slog.Logger) CallbackOption {
	return func(s *CallbackServer) { s.logger = l }
}

func NewCallbackServer(opts ...CallbackOption) *CallbackServer {
	s := &CallbackServer{out: io.Discard}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDiscard(s.logger).With(logger.Component("callback"))
	return s
}

// Callback binds the listener and starts serving. The returned URL points at
// the bound port.
func (s *CallbackServer) Callback(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return "", errors.New("identity: callback server already started")
	}

	path := DefaultCallbackPath
	opts := append([]httpserver.Option{httpserver.WithLogger(s.logger)}, s.serverOpts...)
	var fixed *url.URL
	if s.callbackURL != "" {
		u, err := url.Parse(s.callbackURL)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("identity: invalid callback url %q", s.callbackURL)
		}
		fixed = u
		if u.Path != "" {
			path = u.Path
		}
		opts = append(opts, httpserver.WithAddr(u.Host))
	}

	srv := httpserver.New(opts...)
	addr, err := srv.Listen()
	if err != nil {
		return "", err
	}
	s.srv = srv
	s.results = make(chan callbackResult, 1)

	r := chi.NewRouter()
	r.Get(path, s.handleCallback)
	go func() {
		if err := srv.Run(context.WithoutCancel(ctx), r); err != nil {
			s.logger.ErrorContext(ctx, "callback server stopped", logger.Error(err))
		}
	}()

	if fixed != nil {
		return fixed.String(), nil
	}
	return "http://" + addr.String() + path, nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := callbackResult{token: q.Get(oauth.ParamToken), verifier: q.Get(oauth.ParamVerifier)}
	msg := "Signed in. You can close this window."
	if q.Has("denied") {
		res = callbackResult{err: oauth.ErrCanceled}
		msg = "Sign in was canceled. You can close this window."
	}

	select {
	case s.results <- res:
	default:
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, msg)
}

// Authorize prints req.URL, optionally opens it and waits for the redirect.
func (s *CallbackServer) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	s.mu.Lock()
	results := s.results
	s.mu.Unlock()
	if results == nil {
		return "", errors.New("identity: callback server not started")
	}

	fmt.Fprintf(s.out, "Open this URL to authorize the application:\n\n  %s\n\n", req.URL)
	if s.open != nil {
		if err := s.open(req.URL); err != nil {
			s.logger.WarnContext(ctx, "failed to open browser", logger.Error(err))
		}
	}

	select {
	case <-ctx.Done():
		return "", oauth.ErrCanceled
	case res := <-results:
		if res.err != nil {
			return "", res.err
		}
		if res.token != "" && res.token != req.TempToken.Token {
			return "", ErrTokenMismatch
		}
		return res.verifier, nil
	}
}

// Close shuts the listener down.
func (s *CallbackServer) Close() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(context.Background())
}
