package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind discriminates the credential variants a Token can hold.
type Kind string

const (
	KindOAuth1a Kind = "oauth1a"
	KindOAuth2  Kind = "oauth2"
	KindGuest   Kind = "guest"
)

// GuestTokenLifetime is how long a guest token is trusted after it was issued.
const GuestTokenLifetime = 3 * time.Hour

// Token is a credential of one of three kinds. Only the fields of its Kind are
// meaningful:
//
//   - KindOAuth1a: Token, Secret
//   - KindOAuth2: TokenType, AccessToken
//   - KindGuest: TokenType, AccessToken, GuestToken
type Token struct {
	Kind      Kind
	CreatedAt time.Time

	Token  string
	Secret string

	TokenType   string
	AccessToken string
	GuestToken  string
}

func NewOAuth1aToken(token, secret string) Token {
	return Token{Kind: KindOAuth1a, CreatedAt: time.Now().UTC(), Token: token, Secret: secret}
}

func NewOAuth2Token(tokenType, accessToken string) Token {
	return Token{Kind: KindOAuth2, CreatedAt: time.Now().UTC(), TokenType: tokenType, AccessToken: accessToken}
}

func NewGuestToken(tokenType, accessToken, guestToken string) Token {
	return Token{
		Kind:        KindGuest,
		CreatedAt:   time.Now().UTC(),
		TokenType:   tokenType,
		AccessToken: accessToken,
		GuestToken:  guestToken,
	}
}

// IsExpired reports whether the token should no longer be used at now. Only
// guest tokens expire; a guest token with a zero CreatedAt is always expired.
func (t Token) IsExpired(now time.Time) bool {
	if t.Kind != KindGuest {
		return false
	}
	return !now.Before(t.CreatedAt.Add(GuestTokenLifetime))
}

// Equal compares kind, credentials and creation time.
func (t Token) Equal(o Token) bool {
	return t.Kind == o.Kind &&
		t.Token == o.Token &&
		t.Secret == o.Secret &&
		t.TokenType == o.TokenType &&
		t.AccessToken == o.AccessToken &&
		t.GuestToken == o.GuestToken &&
		t.CreatedAt.Equal(o.CreatedAt)
}

// SameCredentials compares everything Equal does except CreatedAt.
func (t Token) SameCredentials(o Token) bool {
	o.CreatedAt = t.CreatedAt
	return t.Equal(o)
}

// AuthorizationHeader returns the Authorization value for bearer-style tokens.
func (t Token) AuthorizationHeader() string {
	return t.TokenType + " " + t.AccessToken
}

// String never includes secrets.
func (t Token) String() string {
	return fmt.Sprintf("oauth.Token{kind: %s, created_at: %s}", t.Kind, t.CreatedAt.Format(time.RFC3339))
}

type tokenEnvelope struct {
	AuthType  Kind            `json:"auth_type"`
	AuthToken json.RawMessage `json:"auth_token"`
}

type tokenBody struct {
	CreatedAt   int64  `json:"created_at"`
	Token       string `json:"token,omitempty"`
	Secret      string `json:"secret,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	GuestToken  string `json:"guest_token,omitempty"`
}

// MarshalJSON writes the discriminated form
// {"auth_type": kind, "auth_token": {...}} with created_at in epoch millis.
func (t Token) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case KindOAuth1a, KindOAuth2, KindGuest:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTokenKind, t.Kind)
	}

	body := tokenBody{}
	if !t.CreatedAt.IsZero() {
		body.CreatedAt = t.CreatedAt.UnixMilli()
	}
	switch t.Kind {
	case KindOAuth1a:
		body.Token, body.Secret = t.Token, t.Secret
	case KindGuest:
		body.GuestToken = t.GuestToken
		fallthrough
	case KindOAuth2:
		body.TokenType, body.AccessToken = t.TokenType, t.AccessToken
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tokenEnvelope{AuthType: t.Kind, AuthToken: raw})
}

func (t *Token) UnmarshalJSON(data []byte) error {
	var env tokenEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.AuthType {
	case KindOAuth1a, KindOAuth2, KindGuest:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTokenKind, env.AuthType)
	}
	if len(env.AuthToken) == 0 {
		return errors.New("oauth: token envelope has no auth_token")
	}

	var body tokenBody
	if err := json.Unmarshal(env.AuthToken, &body); err != nil {
		return err
	}

	*t = Token{Kind: env.AuthType}
	if body.CreatedAt > 0 {
		t.CreatedAt = time.UnixMilli(body.CreatedAt).UTC()
	}
	switch env.AuthType {
	case KindOAuth1a:
		t.Token, t.Secret = body.Token, body.Secret
	case KindGuest:
		t.GuestToken = body.GuestToken
		fallthrough
	case KindOAuth2:
		t.TokenType, t.AccessToken = body.TokenType, body.AccessToken
	}
	return nil
}
