package session

import (
	"fmt"

	"github.com/dmitrymomot/twitterkit/pkg/oauth"
)

const (
	// GuestSessionID is the fixed id of every guest session.
	GuestSessionID int64 = 0
	// UnknownUserID marks a user session whose id was not returned.
	UnknownUserID int64 = -1
)

// Session pairs a credential with the account it belongs to.
type Session struct {
	Token    oauth.Token `json:"auth_token"`
	ID       int64       `json:"id"`
	UserName string      `json:"user_name,omitempty"`
}

// NewTwitterSession builds a signed-in user session from an OAuth1a token.
func NewTwitterSession(token oauth.Token, userID int64, userName string) (*Session, error) {
	if token.Kind != oauth.KindOAuth1a {
		return nil, fmt.Errorf("%w: user session needs %s, got %s", ErrInvalidSession, oauth.KindOAuth1a, token.Kind)
	}
	return &Session{Token: token, ID: userID, UserName: userName}, nil
}

// NewGuestSession builds the logged-out session from a guest token.
func NewGuestSession(token oauth.Token) (*Session, error) {
	if token.Kind != oauth.KindGuest {
		return nil, fmt.Errorf("%w: guest session needs %s, got %s", ErrInvalidSession, oauth.KindGuest, token.Kind)
	}
	return &Session{Token: token, ID: GuestSessionID}, nil
}

func (s *Session) Equal(o *Session) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.ID == o.ID && s.UserName == o.UserName && s.Token.Equal(o.Token)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
