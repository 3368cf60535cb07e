package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type settings struct {
	level      slog.Leveler
	format     Format
	out        io.Writer
	static     []slog.Attr
	extractors []ContextExtractor
}

// Option adjusts how New builds a logger.
type Option func(*settings)

func WithLevel(l slog.Leveler) Option {
	return func(s *settings) { s.level = l }
}

// WithFormat panics for anything other than FormatJSON or FormatText.
func WithFormat(f Format) Option {
	if f != FormatJSON && f != FormatText {
		panic(fmt.Sprintf("logger: unknown format %q", f))
	}
	return func(s *settings) { s.format = f }
}

// WithOutput ignores a nil writer.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) { s.static = append(s.static, attrs...) }
}

// WithContextExtractors adds extractors after the built-in session extractor.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(s *settings) { s.extractors = append(s.extractors, extractors...) }
}

// WithVerbose switches to text output at debug level. It is a no-op when
// verbose is false, so the CLI can pass its --verbose flag straight through.
func WithVerbose(verbose bool) Option {
	return func(s *settings) {
		if verbose {
			s.level = slog.LevelDebug
			s.format = FormatText
		}
	}
}

func (s *settings) handler() slog.Handler {
	ho := &slog.HandlerOptions{Level: s.level}
	var h slog.Handler = slog.NewJSONHandler(s.out, ho)
	if s.format == FormatText {
		h = slog.NewTextHandler(s.out, ho)
	}
	if len(s.static) > 0 {
		h = h.WithAttrs(s.static)
	}
	return newContextHandler(h, append([]ContextExtractor{SessionFromContext}, s.extractors...))
}

// New returns a logger writing JSON at info level to stderr unless options
// say otherwise. Records whose context carries a session (see WithSession)
// get a session_id attribute.
func New(opts ...Option) *slog.Logger {
	s := &settings{level: slog.LevelInfo, format: FormatJSON, out: os.Stderr}
	for _, opt := range opts {
		opt(s)
	}
	return slog.New(s.handler())
}

// Discard drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns l, or Discard when l is nil. Library constructors use it
// so a missing logger never needs a nil check.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return Discard()
}
