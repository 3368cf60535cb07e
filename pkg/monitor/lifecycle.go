package monitor

import (
	"context"
	"net/http"
	"sync"
)

// Lifecycle fans out "the user is using the app" events. Hosts call Started
// whenever that happens: a CLI command runs, a request arrives, a daemon
// wakes up.
type Lifecycle struct {
	mu      sync.RWMutex
	onStart []func(context.Context)
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// OnStart registers fn for every later Started call.
func (l *Lifecycle) OnStart(fn func(context.Context)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStart = append(l.onStart, fn)
}

// Started notifies every subscriber in registration order.
func (l *Lifecycle) Started(ctx context.Context) {
	l.mu.RLock()
	handlers := make([]func(context.Context), len(l.onStart))
	copy(handlers, l.onStart)
	l.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx)
	}
}

// Middleware reports every request that passes through as a start event.
func (l *Lifecycle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.Started(r.Context())
		next.ServeHTTP(w, r)
	})
}
