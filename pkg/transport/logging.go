package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
)

// Logging writes one debug record per round trip. Headers are never logged
// since they carry credentials.
type Logging struct {
	Next   http.RoundTripper
	Logger *slog.Logger
}

func NewLogging(l *slog.Logger, next http.RoundTripper) *Logging {
	return &Logging{Next: next, Logger: logger.OrDiscard(l).With(logger.Component("http"))}
}

func (t *Logging) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	u := *req.URL
	u.RawQuery = ""
	resp, err := next(t.Next).RoundTrip(req)
	if err != nil {
		t.Logger.DebugContext(req.Context(), "request failed",
			logger.Endpoint(req.Method, u.String()),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		return nil, err
	}
	t.Logger.DebugContext(req.Context(), "request done",
		logger.Endpoint(req.Method, u.String()),
		logger.StatusCode(resp.StatusCode),
		logger.Duration(time.Since(start)),
	)
	return resp, nil
}
