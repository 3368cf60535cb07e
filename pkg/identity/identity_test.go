package identity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit/pkg/api"
	"github.com/dmitrymomot/twitterkit/pkg/identity"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

type fakeService struct {
	tempErr   error
	accessErr error

	mu       sync.Mutex
	callback string
	verifier string
}

func (f *fakeService) RequestTempToken(_ context.Context, callback string) (*oauth.Response, error) {
	f.mu.Lock()
	f.callback = callback
	f.mu.Unlock()
	if f.tempErr != nil {
		return nil, f.tempErr
	}
	return &oauth.Response{Token: oauth.NewOAuth1aToken("temp", "temp-secret")}, nil
}

func (f *fakeService) AuthorizeURL(tok oauth.Token) string {
	return "https://api.twitter.com/oauth/authorize?oauth_token=" + tok.Token
}

func (f *fakeService) RequestAccessToken(_ context.Context, tok oauth.Token, verifier string) (*oauth.Response, error) {
	f.mu.Lock()
	f.verifier = verifier
	f.mu.Unlock()
	if f.accessErr != nil {
		return nil, f.accessErr
	}
	return &oauth.Response{Token: oauth.NewOAuth1aToken("access", "access-secret"), UserID: 42, UserName: "gopher"}, nil
}

type fakeAuthorizer struct {
	verifier string
	err      error
	block    bool

	req    identity.AuthorizeRequest
	closed bool
}

func (a *fakeAuthorizer) Callback(context.Context) (string, error) {
	return "http://127.0.0.1:1/callback", nil
}

func (a *fakeAuthorizer) Authorize(ctx context.Context, req identity.AuthorizeRequest) (string, error) {
	a.req = req
	if a.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return a.verifier, a.err
}

func (a *fakeAuthorizer) Close() error {
	a.closed = true
	return nil
}

func TestController(t *testing.T) {
	t.Parallel()

	t.Run("success walks every state", func(t *testing.T) {
		t.Parallel()
		svc := &fakeService{}
		auth := &fakeAuthorizer{verifier: "ver"}
		var states []identity.State
		c := identity.NewController(svc, identity.OnTransition(func(_, to identity.State) {
			states = append(states, to)
		}))

		resp, err := c.Run(context.Background(), auth)
		require.NoError(t, err)
		assert.Equal(t, int64(42), resp.UserID)
		assert.Equal(t, identity.StateComplete, c.State())
		assert.Equal(t, []identity.State{
			identity.StateTempTokenRequested,
			identity.StateAwaitingUserAuthorization,
			identity.StateAccessTokenRequested,
			identity.StateComplete,
		}, states)

		assert.Equal(t, "http://127.0.0.1:1/callback", svc.callback)
		assert.Equal(t, "ver", svc.verifier)
		assert.Equal(t, "temp", auth.req.TempToken.Token)
		assert.Contains(t, auth.req.URL, "oauth_token=temp")
		assert.True(t, auth.closed)
	})

	tests := []struct {
		name    string
		svc     *fakeService
		auth    *fakeAuthorizer
		reason  string
		message string
		status  int
	}{
		{
			name:    "request token failure",
			svc:     &fakeService{tempErr: &oauth.StatusError{StatusCode: 401, Body: "secret internals"}},
			auth:    &fakeAuthorizer{verifier: "ver"},
			reason:  oauth.ReasonRequestToken,
			message: "failed to get request token",
			status:  401,
		},
		{
			name:    "authorizer failure",
			svc:     &fakeService{},
			auth:    &fakeAuthorizer{err: errors.New("boom")},
			reason:  oauth.ReasonAuthorization,
			message: "authorization completed with an error",
		},
		{
			name:    "missing verifier",
			svc:     &fakeService{},
			auth:    &fakeAuthorizer{},
			reason:  oauth.ReasonAuthorization,
			message: "failed to get authorization, bundle incomplete",
		},
		{
			name:    "access token failure",
			svc:     &fakeService{accessErr: &oauth.AuthError{Reason: oauth.ReasonParse, Message: "bad body"}},
			auth:    &fakeAuthorizer{verifier: "ver"},
			reason:  oauth.ReasonAccessToken,
			message: "failed to get access token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := identity.NewController(tt.svc)
			_, err := c.Run(context.Background(), tt.auth)

			var ae *oauth.AuthError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.reason, ae.Reason)
			assert.Equal(t, tt.message, ae.Message)
			assert.Equal(t, tt.status, ae.StatusCode)
			assert.Equal(t, identity.StateFailed, c.State())
			assert.True(t, tt.auth.closed)
		})
	}

	t.Run("canceled by authorizer", func(t *testing.T) {
		t.Parallel()
		c := identity.NewController(&fakeService{})
		_, err := c.Run(context.Background(), &fakeAuthorizer{err: oauth.ErrCanceled})
		assert.True(t, oauth.IsCanceled(err))
		assert.Equal(t, identity.StateFailed, c.State())
	})

	t.Run("finished controller is not reused", func(t *testing.T) {
		t.Parallel()
		c := identity.NewController(&fakeService{})
		_, err := c.Run(context.Background(), &fakeAuthorizer{verifier: "ver"})
		require.NoError(t, err)

		auth := &fakeAuthorizer{verifier: "ver"}
		_, err = c.Run(context.Background(), auth)
		assert.ErrorIs(t, err, identity.ErrFlowFinished)
		assert.Equal(t, identity.StateComplete, c.State())
		assert.False(t, auth.closed, "second run never touches the authorizer")
	})
}

func newUserManager() *session.PersistedManager {
	return session.NewPersistedManager(session.NewMemoryStore(), session.UserPrefix, session.UserActiveKey)
}

type clientFunc func(*session.Session) (*api.Client, error)

func (f clientFunc) APIClientFor(s *session.Session) (*api.Client, error) { return f(s) }

func TestAuthClient(t *testing.T) {
	t.Parallel()

	t.Run("stores the active session", func(t *testing.T) {
		t.Parallel()
		m := newUserManager()
		ac := identity.NewAuthClient(&fakeService{}, m, nil)

		s, err := ac.Authorize(context.Background(), &fakeAuthorizer{verifier: "ver"})
		require.NoError(t, err)
		assert.Equal(t, int64(42), s.ID)
		assert.Equal(t, "gopher", s.UserName)

		active, err := m.ActiveSession(context.Background())
		require.NoError(t, err)
		assert.True(t, s.Equal(active))
		assert.False(t, ac.InProgress())
	})

	t.Run("one flow at a time and cancel", func(t *testing.T) {
		t.Parallel()
		ac := identity.NewAuthClient(&fakeService{}, newUserManager(), nil)

		fut := ac.AuthorizeAsync(context.Background(), &fakeAuthorizer{block: true})
		require.Eventually(t, ac.InProgress, time.Second, 5*time.Millisecond)

		_, err := ac.Authorize(context.Background(), &fakeAuthorizer{verifier: "ver"})
		assert.ErrorIs(t, err, identity.ErrAuthorizeInProgress)

		ac.CancelAuthorize()
		s, err := fut.AwaitWithTimeout(time.Second)
		assert.Nil(t, s)
		assert.True(t, oauth.IsCanceled(err))
		assert.False(t, ac.InProgress())
	})

	t.Run("request email", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/1.1/account/verify_credentials.json", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("include_email"))
			assert.Equal(t, "false", r.URL.Query().Get("include_entities"))
			_, _ = w.Write([]byte(`{"id":42,"email":"gopher@example.com"}`))
		}))
		t.Cleanup(srv.Close)

		clients := clientFunc(func(*session.Session) (*api.Client, error) {
			return api.New(srv.Client(), api.WithBaseURL(srv.URL)), nil
		})
		ac := identity.NewAuthClient(&fakeService{}, newUserManager(), clients)
		email, err := ac.RequestEmail(context.Background(), &session.Session{ID: 42, Token: oauth.NewOAuth1aToken("a", "b")})
		require.NoError(t, err)
		assert.Equal(t, "gopher@example.com", email)
	})
}

func TestCallbackServer(t *testing.T) {
	t.Parallel()

	start := func(t *testing.T) (*identity.CallbackServer, string) {
		t.Helper()
		cs := identity.NewCallbackServer()
		t.Cleanup(func() { _ = cs.Close() })
		cb, err := cs.Callback(context.Background())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(cb, "http://127.0.0.1:"))
		assert.True(t, strings.HasSuffix(cb, identity.DefaultCallbackPath))
		return cs, cb
	}
	req := identity.AuthorizeRequest{URL: "https://example.com/authorize", TempToken: oauth.NewOAuth1aToken("temp", "s")}

	hit := func(t *testing.T, u string) {
		t.Helper()
		go func() {
			resp, err := http.Get(u)
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
	}

	t.Run("returns the verifier", func(t *testing.T) {
		t.Parallel()
		cs, cb := start(t)
		hit(t, cb+"?oauth_token=temp&oauth_verifier=ver")
		v, err := cs.Authorize(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ver", v)
	})

	t.Run("denied is canceled", func(t *testing.T) {
		t.Parallel()
		cs, cb := start(t)
		hit(t, cb+"?denied=temp")
		_, err := cs.Authorize(context.Background(), req)
		assert.True(t, oauth.IsCanceled(err))
	})

	t.Run("token mismatch", func(t *testing.T) {
		t.Parallel()
		cs, cb := start(t)
		hit(t, cb+"?oauth_token=other&oauth_verifier=ver")
		_, err := cs.Authorize(context.Background(), req)
		assert.ErrorIs(t, err, identity.ErrTokenMismatch)
	})

	t.Run("context done is canceled", func(t *testing.T) {
		t.Parallel()
		cs, _ := start(t)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := cs.Authorize(ctx, req)
		assert.True(t, oauth.IsCanceled(err))
	})
}

// authHeaderParams parses an "OAuth k="v", ..." header.
func authHeaderParams(h string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(strings.TrimPrefix(h, "OAuth "), ", ") {
		k, v, _ := strings.Cut(part, "=")
		v, _ = url.PathUnescape(strings.Trim(v, `"`))
		out[k] = v
	}
	return out
}

func TestSignInEndToEnd(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var callback string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		callback = authHeaderParams(r.Header.Get("Authorization"))[oauth.ParamCallback]
		mu.Unlock()
		_, _ = w.Write([]byte("oauth_token=temp&oauth_token_secret=temp-secret&oauth_callback_confirmed=true"))
	})
	mux.HandleFunc("GET /oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		cb := callback
		mu.Unlock()
		http.Redirect(w, r, cb+"?oauth_token="+r.URL.Query().Get("oauth_token")+"&oauth_verifier=ver", http.StatusFound)
	})
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get(oauth.ParamVerifier) != "ver" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "temp", authHeaderParams(r.Header.Get("Authorization"))[oauth.ParamToken])
		_, _ = w.Write([]byte("oauth_token=access&oauth_token_secret=access-secret&user_id=42&screen_name=gopher"))
	})
	twitter := httptest.NewServer(mux)
	t.Cleanup(twitter.Close)

	svc, err := oauth.NewOAuth1aService(
		oauth.Credentials{ConsumerKey: "key", ConsumerSecret: "secret"},
		oauth.WithBaseURL(twitter.URL),
		oauth.WithHTTPClient(twitter.Client()),
	)
	require.NoError(t, err)

	// The "browser" follows the authorize redirect back to the callback server.
	browser := func(u string) error {
		go func() {
			resp, err := http.Get(u)
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}

	m := newUserManager()
	ac := identity.NewAuthClient(svc, m, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := ac.Authorize(ctx, identity.NewCallbackServer(identity.WithBrowser(browser)))
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.ID)
	assert.Equal(t, "gopher", s.UserName)
	assert.Equal(t, "access", s.Token.Token)
	assert.Equal(t, "access-secret", s.Token.Secret)
}

func TestPINAuthorizer(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	p := identity.NewPINAuthorizer(identity.ReaderPrompter(strings.NewReader(" 123456 \n"), &out), nil)

	cb, err := p.Callback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, oauth.OutOfBandCallback, cb)

	pin, err := p.Authorize(context.Background(), identity.AuthorizeRequest{URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, "123456", pin)
	assert.Contains(t, out.String(), "https://example.com/a")

	empty := identity.NewPINAuthorizer(identity.ReaderPrompter(strings.NewReader("\n"), &out), nil)
	_, err = empty.Authorize(context.Background(), identity.AuthorizeRequest{})
	assert.True(t, oauth.IsCanceled(err))
}
