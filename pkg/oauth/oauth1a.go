package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
)

// Response is the result of the request token and access token steps.
type Response struct {
	Token    Token
	UserName string
	UserID   int64
}

// ParseAuthResponse decodes a form-encoded OAuth1a token response.
func ParseAuthResponse(body string) (*Response, error) {
	params := ParseParams(strings.TrimSpace(body))
	if !params.Has(ParamToken) || !params.Has(ParamTokenSecret) {
		return nil, &AuthError{Reason: ReasonParse, Message: "failed to parse auth response: " + body}
	}

	var userID int64
	if raw := params.Get(paramUserID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &AuthError{Reason: ReasonParse, Message: "failed to parse auth response: invalid user_id " + raw}
		}
		userID = id
	}

	return &Response{
		Token:    NewOAuth1aToken(params.Get(ParamToken), params.Get(ParamTokenSecret)),
		UserName: params.Get(paramScreenName),
		UserID:   userID,
	}, nil
}

// OAuth1aService runs the three-legged sign-in handshake.
type OAuth1aService struct {
	options
	creds  Credentials
	signer *Signer
}

func NewOAuth1aService(creds Credentials, opts ...Option) (*OAuth1aService, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	o.logger = o.logger.With(logger.Component("oauth1a"))
	return &OAuth1aService{
		options: o,
		creds:   creds,
		signer:  NewSigner(creds, o.signerOpts...),
	}, nil
}

// Signer exposes the signer bound to the service credentials.
func (s *OAuth1aService) Signer() *Signer { return s.signer }

// BuildCallbackURL returns the app-scoped callback used when the host has no
// callback endpoint of its own.
func (s *OAuth1aService) BuildCallbackURL(version string) string {
	q := url.Values{}
	q.Set("version", version)
	q.Set("app", s.creds.ConsumerKey)
	return "twittersdk://callback?" + q.Encode()
}

// RequestTempToken starts sign-in. The request is signed with consumer
// credentials only and carries callback as oauth_callback.
func (s *OAuth1aService) RequestTempToken(ctx context.Context, callback string) (*Response, error) {
	endpoint := s.baseURL + pathRequestToken
	header, err := s.signer.AuthorizationHeader(Request{Method: http.MethodPost, URL: endpoint, Callback: callback})
	if err != nil {
		return nil, err
	}
	return s.exchange(ctx, endpoint, header, nil)
}

// AuthorizeURL is where the user approves the temporary token.
func (s *OAuth1aService) AuthorizeURL(tempToken Token) string {
	return s.baseURL + pathAuthorize + "?" + ParamToken + "=" + PercentEncode(tempToken.Token)
}

// RequestAccessToken exchanges an authorized temporary token and verifier for
// user credentials. The signature covers the endpoint without its query; the
// verifier travels as the oauth_verifier query parameter.
func (s *OAuth1aService) RequestAccessToken(ctx context.Context, tempToken Token, verifier string) (*Response, error) {
	endpoint := s.baseURL + pathAccessToken
	header, err := s.signer.AuthorizationHeader(Request{Method: http.MethodPost, URL: endpoint, Token: &tempToken})
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set(ParamVerifier, verifier)
	return s.exchange(ctx, endpoint, header, q)
}

func (s *OAuth1aService) exchange(ctx context.Context, endpoint, authHeader string, query url.Values) (*Response, error) {
	target := endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodPost, target, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth: build request: %w", err)
	}
	req.Header.Set(HeaderAuthorization, authHeader)

	body, err := s.do(ctx, req)
	if err != nil {
		s.logger.DebugContext(ctx, "token exchange failed", logger.Endpoint(http.MethodPost, endpoint), logger.Error(err))
		return nil, err
	}
	return ParseAuthResponse(string(body))
}
