package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// SessionID records a session identifier under the key "session_id".
func SessionID(id int64) slog.Attr {
	return slog.Int64("session_id", id)
}

// UserName records a screen name under the key "user_name".
func UserName(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("user_name", name)
}

// TokenKind records the auth token discriminator under the key "token_kind".
func TokenKind(kind string) slog.Attr {
	return slog.String("token_kind", kind)
}

// Endpoint records a request method and URL under the key "endpoint".
func Endpoint(method, url string) slog.Attr {
	return slog.Group("endpoint", slog.String("method", method), slog.String("url", url))
}

// StatusCode records an HTTP status under the key "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Key records a store key under the key "key".
func Key(key string) slog.Attr {
	return slog.String("key", key)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
