package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dmitrymomot/twitterkit/pkg/async"
	"github.com/dmitrymomot/twitterkit/pkg/logger"
)

// OAuth2Service obtains application-only and guest tokens.
type OAuth2Service struct {
	options
	cc clientcredentials.Config
}

func NewOAuth2Service(creds Credentials, opts ...Option) (*OAuth2Service, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	o.logger = o.logger.With(logger.Component("oauth2"))
	return &OAuth2Service{
		options: o,
		cc: clientcredentials.Config{
			ClientID:     creds.ConsumerKey,
			ClientSecret: creds.ConsumerSecret,
			TokenURL:     o.baseURL + pathAppToken,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
	}, nil
}

// RequestAppAuthToken performs the client_credentials grant.
func (s *OAuth2Service) RequestAppAuthToken(ctx context.Context) (Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.uaClient())
	tok, err := s.cc.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			err = &StatusError{StatusCode: re.Response.StatusCode, Body: string(re.Body)}
		}
		return Token{}, NewAuthError(ReasonAppToken, err)
	}
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return NewOAuth2Token(tokenType, tok.AccessToken), nil
}

type guestTokenResponse struct {
	GuestToken string `json:"guest_token"`
}

// RequestGuestToken activates a guest token with an application-only token.
func (s *OAuth2Service) RequestGuestToken(ctx context.Context, appToken Token) (string, error) {
	if appToken.Kind != KindOAuth2 && appToken.Kind != KindGuest {
		return "", fmt.Errorf("%w: guest activation needs %s, got %s", ErrWrongTokenKind, KindOAuth2, appToken.Kind)
	}
	req, err := http.NewRequest(http.MethodPost, s.baseURL+pathGuestActivate, nil)
	if err != nil {
		return "", fmt.Errorf("oauth: build request: %w", err)
	}
	req.Header.Set(HeaderAuthorization, AuthorizationBearer+" "+appToken.AccessToken)

	body, err := s.do(ctx, req)
	if err != nil {
		return "", NewAuthError(ReasonGuestToken, err)
	}
	var out guestTokenResponse
	if err := json.Unmarshal(body, &out); err != nil || out.GuestToken == "" {
		return "", &AuthError{Reason: ReasonGuestToken, Message: "failed to parse guest token response: " + string(body)}
	}
	return out.GuestToken, nil
}

// RequestGuestAuthToken requests an app token, then activates a guest token
// with it.
func (s *OAuth2Service) RequestGuestAuthToken(ctx context.Context) (Token, error) {
	app, err := s.RequestAppAuthToken(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get app auth token", logger.Error(err))
		return Token{}, err
	}
	guest, err := s.RequestGuestToken(ctx, app)
	if err != nil {
		s.logger.ErrorContext(ctx, "your app may not allow guest auth, the consumer key may need an upgrade", logger.Error(err))
		return Token{}, err
	}
	return NewGuestToken(app.TokenType, app.AccessToken, guest), nil
}

// RequestGuestAuthTokenAsync runs RequestGuestAuthToken in the background.
func (s *OAuth2Service) RequestGuestAuthTokenAsync(ctx context.Context) *async.Future[Token] {
	return async.Go(ctx, s.RequestGuestAuthToken)
}

func (s *OAuth2Service) uaClient() *http.Client {
	if s.userAgent == "" {
		return s.httpClient
	}
	c := *s.httpClient
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.Transport = uaTransport{ua: s.userAgent, next: base}
	return &c
}

// uaTransport mirrors transport.UserAgent, which cannot be imported here
// because the transport package imports oauth.
type uaTransport struct {
	ua   string
	next http.RoundTripper
}

func (t uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(r)
}
