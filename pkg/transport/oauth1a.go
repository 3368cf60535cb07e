package transport

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

// OAuth1a signs every request with the user session it was built for.
type OAuth1a struct {
	// Next is the underlying transport; nil means http.DefaultTransport.
	Next http.RoundTripper

	signer    *oauth.Signer
	token     oauth.Token
	sessionID int64
}

var _ http.RoundTripper = (*OAuth1a)(nil)

// NewOAuth1a returns a signing transport for s, which must hold an OAuth1a
// token.
func NewOAuth1a(signer *oauth.Signer, s *session.Session, next http.RoundTripper) (*OAuth1a, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil session", session.ErrInvalidSession)
	}
	if s.Token.Kind != oauth.KindOAuth1a {
		return nil, fmt.Errorf("%w: signing needs %s, got %s", oauth.ErrWrongTokenKind, oauth.KindOAuth1a, s.Token.Kind)
	}
	return &OAuth1a{Next: next, signer: signer, token: s.Token, sessionID: s.ID}, nil
}

// RoundTrip signs a clone of req. The clone's context carries the session id
// for logging further down the chain.
func (t *OAuth1a) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(logger.WithSession(req.Context(), t.sessionID))
	r.URL.RawQuery = canonicalQuery(r.URL.RawQuery)

	form, err := formParams(r)
	if err != nil {
		return nil, err
	}

	tok := t.token
	header, err := t.signer.AuthorizationHeader(oauth.Request{
		Method: r.Method,
		URL:    r.URL.String(),
		Token:  &tok,
		Form:   form,
	})
	if err != nil {
		return nil, err
	}
	r.Header.Set(oauth.HeaderAuthorization, header)
	return next(t.Next).RoundTrip(r)
}

// canonicalQuery re-encodes each query pair with oauth.PercentEncode so the
// bytes on the wire match the bytes that were signed. Order is kept.
func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "&")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		k, v, hasValue := strings.Cut(part, "=")
		enc := oauth.PercentEncode(unescape(k))
		if hasValue {
			enc += "=" + oauth.PercentEncode(unescape(v))
		}
		out = append(out, enc)
	}
	return strings.Join(out, "&")
}

func unescape(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}

// formParams reads the body of a POST form request and puts it back. Other
// requests have no signed body parameters.
func formParams(r *http.Request) (url.Values, error) {
	if !strings.EqualFold(r.Method, http.MethodPost) || r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/x-www-form-urlencoded" {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("transport: read form body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	r.ContentLength = int64(len(body))
	return oauth.ParseParams(string(body)), nil
}

func next(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
