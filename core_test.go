package twitterkit_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit"
	"github.com/dmitrymomot/twitterkit/pkg/api"
	"github.com/dmitrymomot/twitterkit/pkg/config"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

type fakeTwitter struct {
	*httptest.Server
	verifyCalls atomic.Int32
	guestCalls  atomic.Int32
}

func newFakeTwitter(t *testing.T) *fakeTwitter {
	t.Helper()
	ft := &fakeTwitter{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"bearer","access_token":"APP"}`))
	})
	mux.HandleFunc("POST /1.1/guest/activate.json", func(w http.ResponseWriter, _ *http.Request) {
		ft.guestCalls.Add(1)
		_, _ = w.Write([]byte(`{"guest_token":"GUEST"}`))
	})
	mux.HandleFunc("GET /1.1/statuses/show.json", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "TwitterKitGo/"))
		if r.Header.Get(oauth.HeaderGuestToken) != "GUEST" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":20,"text":"just setting up my twttr"}`))
	})
	mux.HandleFunc("GET /1.1/account/verify_credentials.json", func(w http.ResponseWriter, r *http.Request) {
		ft.verifyCalls.Add(1)
		assert.True(t, strings.HasPrefix(r.Header.Get(oauth.HeaderAuthorization), "OAuth "))
		_, _ = w.Write([]byte(`{"id":42,"screen_name":"gopher"}`))
	})
	ft.Server = httptest.NewServer(mux)
	t.Cleanup(ft.Close)
	return ft
}

func testConfig(t *testing.T, apiURL string) twitterkit.Config {
	t.Helper()
	vars := map[string]string{
		"TWITTER_CONSUMER_KEY":    "ck",
		"TWITTER_CONSUMER_SECRET": "cs",
		"TWITTER_STORE":           twitterkit.StoreMemory,
	}
	if apiURL != "" {
		vars["TWITTER_API_URL"] = apiURL
	}
	var cfg twitterkit.Config
	require.NoError(t, config.Load(&cfg, config.WithEnvironment(vars)))
	return cfg
}

func newCore(t *testing.T, cfg twitterkit.Config, opts ...twitterkit.Option) *twitterkit.Core {
	t.Helper()
	c, err := twitterkit.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func userSession(t *testing.T, id int64, token string) *session.Session {
	t.Helper()
	s, err := session.NewTwitterSession(oauth.NewOAuth1aToken(token, "secret"), id, "gopher")
	require.NoError(t, err)
	return s
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "")
	assert.Equal(t, oauth.DefaultBaseURL, cfg.APIURL)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 16, cfg.ClientCacheSize)
	assert.Equal(t, "127.0.0.1:0", cfg.Callback.Addr)
	assert.Equal(t, "twitterkit", cfg.Redis.Namespace)

	var missing twitterkit.Config
	assert.Error(t, config.Load(&missing, config.WithEnvironment(map[string]string{})))
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "")
	cfg.ConsumerSecret = ""
	_, err := twitterkit.New(context.Background(), cfg)
	assert.ErrorIs(t, err, oauth.ErrMissingCredentials)

	cfg = testConfig(t, "")
	cfg.Store = "etcd"
	_, err = twitterkit.New(context.Background(), cfg)
	assert.ErrorIs(t, err, twitterkit.ErrUnknownStore)

	cfg.Store = twitterkit.StoreFile
	_, err = twitterkit.New(context.Background(), cfg)
	assert.ErrorIs(t, err, twitterkit.ErrSessionFileRequired)

	cfg = testConfig(t, "")
	cfg.EncryptionKey = "not base64!"
	_, err = twitterkit.New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestAPIClients(t *testing.T) {
	t.Parallel()

	ft := newFakeTwitter(t)
	c := newCore(t, testConfig(t, ft.URL))
	ctx := context.Background()

	t.Run("guest client when signed out", func(t *testing.T) {
		client, err := c.APIClient(ctx)
		require.NoError(t, err)
		assert.Same(t, c.GuestAPIClient(), client)

		tw, err := client.Statuses().Show(ctx, 20, api.TweetParams{})
		require.NoError(t, err)
		assert.Equal(t, "just setting up my twttr", tw.Text)
		assert.Equal(t, int32(1), ft.guestCalls.Load())
	})

	t.Run("user clients are cached per credentials", func(t *testing.T) {
		s := userSession(t, 42, "tok")
		a, err := c.APIClientFor(s)
		require.NoError(t, err)
		b, err := c.APIClientFor(userSession(t, 42, "tok"))
		require.NoError(t, err)
		assert.Same(t, a, b)

		other, err := c.APIClientFor(userSession(t, 42, "new-tok"))
		require.NoError(t, err)
		assert.NotSame(t, a, other)

		_, err = c.APIClientFor(nil)
		assert.ErrorIs(t, err, session.ErrInvalidSession)

		gs, err := session.NewGuestSession(oauth.NewGuestToken("bearer", "A", "G"))
		require.NoError(t, err)
		_, err = c.APIClientFor(gs)
		assert.ErrorIs(t, err, oauth.ErrWrongTokenKind)
	})

	t.Run("active session wins", func(t *testing.T) {
		s := userSession(t, 7, "active")
		require.NoError(t, c.SessionManager().SetActiveSession(ctx, s))
		client, err := c.APIClient(ctx)
		require.NoError(t, err)
		want, err := c.APIClientFor(s)
		require.NoError(t, err)
		assert.Same(t, want, client)
	})
}

func TestAddClients(t *testing.T) {
	t.Parallel()

	c := newCore(t, testConfig(t, ""))
	s := userSession(t, 1, "tok")
	custom := api.New(nil)

	assert.True(t, c.AddAPIClient(s, custom))
	assert.False(t, c.AddAPIClient(s, api.New(nil)))
	got, err := c.APIClientFor(s)
	require.NoError(t, err)
	assert.Same(t, custom, got)

	assert.True(t, c.AddGuestAPIClient(custom))
	assert.False(t, c.AddGuestAPIClient(api.New(nil)))
	assert.Same(t, custom, c.GuestAPIClient())

	fresh := newCore(t, testConfig(t, ""))
	_ = fresh.GuestAPIClient()
	assert.False(t, fresh.AddGuestAPIClient(custom))
}

func TestAPIClientForUnderEviction(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "")
	cfg.ClientCacheSize = 1
	c := newCore(t, cfg)

	sessions := make([]*session.Session, 4)
	for i := range sessions {
		sessions[i] = userSession(t, int64(i+1), "tok")
	}

	var nils atomic.Int32
	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 2000 {
				client, err := c.APIClientFor(sessions[(g+i)%len(sessions)])
				if err != nil || client == nil {
					nils.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, nils.Load(), "every call returns a client")
}

func TestBootstrap(t *testing.T) {
	t.Parallel()

	ft := newFakeTwitter(t)
	store := session.NewMemoryStore()
	ctx := context.Background()

	seed := session.NewPersistedManager(store, session.UserPrefix, session.UserActiveKey)
	require.NoError(t, seed.SetActiveSession(ctx, userSession(t, 42, "tok")))

	c := newCore(t, testConfig(t, ft.URL), twitterkit.WithStore(store))
	require.NoError(t, c.Bootstrap(ctx))

	active, err := c.SessionManager().ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, int64(42), active.ID)

	c.Monitor().Wait()
	assert.Equal(t, int32(1), ft.verifyCalls.Load())

	c.Lifecycle().Started(ctx)
	c.Monitor().Wait()
	assert.Equal(t, int32(1), ft.verifyCalls.Load())

	raw, err := store.Get(ctx, twitterkit.MonitorCheckpointKey)
	require.NoError(t, err)
	assert.NotEmpty(t, raw, "last pass is persisted")

	// A restarted host inside the window does not verify again.
	restarted := newCore(t, testConfig(t, ft.URL), twitterkit.WithStore(store))
	require.NoError(t, restarted.Bootstrap(ctx))
	restarted.Monitor().Wait()
	assert.Equal(t, int32(1), ft.verifyCalls.Load())
}

func TestEncryptedFileStore(t *testing.T) {
	t.Parallel()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	ft := newFakeTwitter(t)
	path := filepath.Join(t.TempDir(), "sessions.json")
	cfg := testConfig(t, ft.URL)
	cfg.Store = twitterkit.StoreFile
	cfg.SessionFile = path
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(key)

	ctx := context.Background()
	c := newCore(t, cfg)
	require.NoError(t, c.SessionManager().SetActiveSession(ctx, userSession(t, 42, "plain-token")))

	st, err := session.OpenFileStore(path)
	require.NoError(t, err)
	raw, err := st.Get(ctx, session.UserActiveKey)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.NotContains(t, string(raw), "plain-token")

	reopened := newCore(t, cfg)
	require.NoError(t, reopened.Bootstrap(ctx))
	active, err := reopened.SessionManager().ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "plain-token", active.Token.Token)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	c, err := twitterkit.New(context.Background(), testConfig(t, ""))
	require.NoError(t, err)
	assert.NoError(t, c.Healthcheck(context.Background()))
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
