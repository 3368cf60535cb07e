package logger

import (
	"context"
	"log/slog"
	"slices"
)

// ContextExtractor pulls one attribute out of a record's context. It reports
// false when the context carries nothing for it.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler appends extracted attributes to every record before handing
// it to the wrapped handler.
type contextHandler struct {
	inner      slog.Handler
	extractors []ContextExtractor
}

func newContextHandler(inner slog.Handler, extractors []ContextExtractor) slog.Handler {
	extractors = slices.DeleteFunc(slices.Clone(extractors), func(ex ContextExtractor) bool { return ex == nil })
	if len(extractors) == 0 {
		return inner
	}
	return &contextHandler{inner: inner, extractors: extractors}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, extract := range h.extractors {
		if attr, ok := extract(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.inner.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name), extractors: h.extractors}
}

type sessionKey struct{}

// WithSession tags ctx with the session a request runs for. Loggers built by
// New add it to records as session_id.
func WithSession(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext extracts the id set by WithSession.
func SessionFromContext(ctx context.Context) (slog.Attr, bool) {
	id, ok := ctx.Value(sessionKey{}).(int64)
	if !ok {
		return slog.Attr{}, false
	}
	return SessionID(id), true
}
