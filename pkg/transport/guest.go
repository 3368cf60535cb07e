package transport

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/twitterkit/pkg/guest"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

// MaxResponses bounds the responses a guest request chain may produce,
// counting the first one. Two allows exactly one retry after a 401.
const MaxResponses = 2

// GuestSessionProvider is satisfied by *guest.Provider.
type GuestSessionProvider interface {
	CurrentSession(ctx context.Context) (*session.Session, error)
	RefreshCurrentSession(ctx context.Context, expired *session.Session) (*session.Session, error)
}

// Guest authenticates requests with the current guest session and refreshes
// the session once when the API rejects it.
type Guest struct {
	// Next is the underlying transport; nil means http.DefaultTransport.
	Next http.RoundTripper

	provider GuestSessionProvider
}

var _ http.RoundTripper = (*Guest)(nil)

func NewGuest(provider GuestSessionProvider, next http.RoundTripper) *Guest {
	return &Guest{Next: next, provider: provider}
}

func (t *Guest) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	s, err := t.provider.CurrentSession(ctx)
	if err != nil {
		closeBody(req)
		return nil, err
	}

	r := req.Clone(ctx)
	if s != nil {
		setGuestHeaders(r.Header, s.Token)
	}
	resp, err := next(t.Next).RoundTrip(r)

	for responses := 1; err == nil && resp.StatusCode == http.StatusUnauthorized && responses < MaxResponses; responses++ {
		retry := t.reauth(ctx, r)
		if retry == nil {
			break
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		r = retry
		resp, err = next(t.Next).RoundTrip(r)
	}
	return resp, err
}

// reauth returns a copy of r carrying refreshed credentials, or nil when there
// is nothing better to retry with.
func (t *Guest) reauth(ctx context.Context, r *http.Request) *http.Request {
	expired := expiredSession(r.Header)
	if expired == nil {
		return nil
	}
	fresh, err := t.provider.RefreshCurrentSession(ctx, expired)
	if err != nil || fresh == nil || guest.SameCredentials(fresh.Token, expired.Token) {
		return nil
	}

	retry := r.Clone(ctx)
	if r.Body != nil && r.Body != http.NoBody {
		if r.GetBody == nil {
			return nil
		}
		body, err := r.GetBody()
		if err != nil {
			return nil
		}
		retry.Body = body
	}
	setGuestHeaders(retry.Header, fresh.Token)
	return retry
}

// expiredSession rebuilds the session a request was sent with from its
// headers.
func expiredSession(h http.Header) *session.Session {
	auth := h.Get(oauth.HeaderAuthorization)
	guestToken := h.Get(oauth.HeaderGuestToken)
	if auth == "" || guestToken == "" {
		return nil
	}
	tokenType, access, ok := strings.Cut(auth, " ")
	if !ok {
		tokenType, access = "bearer", auth
	}
	return &session.Session{
		ID: session.GuestSessionID,
		Token: oauth.Token{
			Kind:        oauth.KindGuest,
			TokenType:   tokenType,
			AccessToken: access,
			GuestToken:  guestToken,
		},
	}
}

func setGuestHeaders(h http.Header, tok oauth.Token) {
	h.Set(oauth.HeaderAuthorization, tok.AuthorizationHeader())
	h.Set(oauth.HeaderGuestToken, tok.GuestToken)
}

func closeBody(r *http.Request) {
	if r.Body != nil {
		_ = r.Body.Close()
	}
}
