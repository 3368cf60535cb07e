package oauth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
)

const maxResponseBody = 1 << 20

// Option configures OAuth1aService and OAuth2Service.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	signerOpts []SignerOption
}

func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSignerOptions passes nonce and clock overrides to the internal signer.
func WithSignerOptions(opts ...SignerOption) Option {
	return func(o *options) { o.signerOpts = append(o.signerOpts, opts...) }
}

func newOptions(opts []Option) options {
	o := options{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logger.OrDiscard(o.logger)
	return o
}

// do sends req and returns the body of a 2xx response, or a *StatusError.
func (o *options) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req = req.WithContext(ctx)
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("oauth: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
