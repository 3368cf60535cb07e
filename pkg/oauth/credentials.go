package oauth

import "errors"

// Credentials identify the application to Twitter.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

func (c Credentials) Validate() error {
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

var (
	ErrMissingCredentials = errors.New("oauth: consumer key and secret are required")
	ErrUnknownTokenKind   = errors.New("oauth: unknown token kind")
	ErrWrongTokenKind     = errors.New("oauth: token has the wrong kind")
)
