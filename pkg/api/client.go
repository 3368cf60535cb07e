package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
)

// Client is a typed façade over the REST API v1.1. Authentication is the job
// of the http.Client it wraps; see package transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger

	accounts      *AccountService
	statuses      *StatusesService
	favorites     *FavoritesService
	search        *SearchService
	lists         *ListsService
	collections   *CollectionsService
	configuration *ConfigurationService
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New wraps httpClient; nil uses http.DefaultClient.
func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{httpClient: httpClient, baseURL: oauth.DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDiscard(c.logger).With(logger.Component("api"))

	c.accounts = &AccountService{c: c}
	c.statuses = &StatusesService{c: c}
	c.favorites = &FavoritesService{c: c}
	c.search = &SearchService{c: c}
	c.lists = &ListsService{c: c}
	c.collections = &CollectionsService{c: c}
	c.configuration = &ConfigurationService{c: c}
	return c
}

func (c *Client) Accounts() *AccountService            { return c.accounts }
func (c *Client) Statuses() *StatusesService           { return c.statuses }
func (c *Client) Favorites() *FavoritesService         { return c.favorites }
func (c *Client) Search() *SearchService               { return c.search }
func (c *Client) Lists() *ListsService                 { return c.lists }
func (c *Client) Collections() *CollectionsService     { return c.collections }
func (c *Client) Configuration() *ConfigurationService { return c.configuration }

// HTTPClient returns the client requests go through.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

func get[T any](ctx context.Context, c *Client, path string, q url.Values) (*T, error) {
	u := c.baseURL + "/1.1/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	return do[T](c, req)
}

func post[T any](ctx context.Context, c *Client, path string, form url.Values) (*T, error) {
	u := c.baseURL + "/1.1/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader([]byte(form.Encode())))
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do[T](c, req)
}

func do[T any](c *Client, req *http.Request) (*T, error) {
	ctx := req.Context()
	endpoint := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, resp.Header, body)
		c.logger.DebugContext(ctx, "api request failed",
			logger.Endpoint(req.Method, endpoint),
			logger.StatusCode(resp.StatusCode),
			logger.Error(apiErr),
		)
		return nil, apiErr
	}

	out := new(T)
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("api: decode %s: %w", endpoint, err)
	}
	return out, nil
}
