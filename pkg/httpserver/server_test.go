package httpserver_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit/pkg/httpserver"
)

// running is a server started in the background by serve.
type running struct {
	addr   net.Addr
	cancel context.CancelFunc
	result chan error
}

// serve runs srv until the returned value's stop is called or the test ends.
// It blocks until the start hook reports the bound address.
func serve(t *testing.T, h http.Handler, opts ...httpserver.Option) (*httpserver.Server, *running) {
	t.Helper()

	bound := make(chan net.Addr, 1)
	opts = append(opts, httpserver.WithStartHook(func(a net.Addr) { bound <- a }))
	srv := httpserver.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{cancel: cancel, result: make(chan error, 1)}
	go func() { r.result <- srv.Run(ctx, h) }()

	select {
	case r.addr = <-bound:
	case err := <-r.result:
		cancel()
		require.FailNow(t, "server exited before start", "%v", err)
	case <-time.After(2 * time.Second):
		cancel()
		require.FailNow(t, "server did not start")
	}
	t.Cleanup(cancel)
	return srv, r
}

func (r *running) stop(t *testing.T) {
	t.Helper()
	r.cancel()
	r.wait(t)
}

func (r *running) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-r.result:
		require.NoError(t, err, "run")
	case <-time.After(2 * time.Second):
		require.FailNow(t, "run did not return")
	}
}

func get(t *testing.T, addr net.Addr, path string) (int, string) {
	t.Helper()
	resp, err := http.Get("http://" + addr.String() + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestListenBeforeRun(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithShutdownTimeout(100 * time.Millisecond))
	assert.Nil(t, srv.Addr(), "no address before Listen")

	addr, err := srv.Listen()
	require.NoError(t, err)
	tcp, ok := addr.(*net.TCPAddr)
	require.True(t, ok)
	assert.True(t, tcp.IP.IsLoopback())
	assert.NotZero(t, tcp.Port, "ephemeral port resolved")

	again, err := srv.Listen()
	require.NoError(t, err)
	assert.Equal(t, addr.String(), again.String(), "Listen is idempotent")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	result := make(chan error, 1)
	go func() {
		result <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "callback")
		}))
	}()

	// Connections queue on the bound socket until Serve picks them up.
	code, body := get(t, addr, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "callback", body)

	cancel()
	require.NoError(t, <-result)
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	t.Run("twice while running", func(t *testing.T) {
		t.Parallel()
		srv, r := serve(t, nil, httpserver.WithShutdownTimeout(100*time.Millisecond))
		require.NoError(t, srv.Shutdown(context.Background()))
		require.NoError(t, srv.Shutdown(context.Background()))
		r.wait(t)
	})

	t.Run("closes an unserved listener", func(t *testing.T) {
		t.Parallel()
		srv := httpserver.New()
		addr, err := srv.Listen()
		require.NoError(t, err)
		require.NoError(t, srv.Shutdown(context.Background()))

		_, err = net.DialTimeout("tcp", addr.String(), 200*time.Millisecond)
		assert.Error(t, err)
	})
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	t.Run("bad address", func(t *testing.T) {
		t.Parallel()
		err := httpserver.New(httpserver.WithAddr(":invalid")).Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("already running", func(t *testing.T) {
		t.Parallel()
		srv, r := serve(t, http.NewServeMux(), httpserver.WithShutdownTimeout(50*time.Millisecond))
		err := srv.Run(context.Background(), http.NewServeMux())
		assert.ErrorIs(t, err, httpserver.ErrStart)
		r.stop(t)
	})
}

func TestStopHook(t *testing.T) {
	t.Parallel()

	var stopped atomic.Int32
	_, r := serve(t, http.NewServeMux(), httpserver.WithStopHook(func() { stopped.Add(1) }))
	assert.Zero(t, stopped.Load())
	r.stop(t)
	assert.EqualValues(t, 1, stopped.Load())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	cfg := httpserver.Config{
		ReadTimeout:     time.Second,
		WriteTimeout:    2 * time.Second,
		IdleTimeout:     3 * time.Second,
		ShutdownTimeout: 50 * time.Millisecond,
	}
	opts := append(cfg.Options(), httpserver.WithLogger(slog.New(slog.DiscardHandler)))
	srv, r := serve(t, nil, opts...)
	assert.Equal(t, srv.Addr().String(), r.addr.String(), "start hook sees the bound address")

	code, _ := get(t, r.addr, "/oauth/callback")
	assert.Equal(t, http.StatusNotFound, code, "nil handler serves 404")
	r.stop(t)
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	for name, fn := range map[string]func(){
		"empty addr":       func() { httpserver.WithAddr("") },
		"negative read":    func() { httpserver.WithReadTimeout(-time.Second) },
		"negative write":   func() { httpserver.WithWriteTimeout(-time.Second) },
		"negative idle":    func() { httpserver.WithIdleTimeout(-time.Second) },
		"negative timeout": func() { httpserver.WithShutdownTimeout(-time.Second) },
		"nil start hook":   func() { httpserver.WithStartHook(nil) },
		"nil stop hook":    func() { httpserver.WithStopHook(nil) },
	} {
		assert.Panics(t, fn, name)
	}
}
