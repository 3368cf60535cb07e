package monitor

import (
	"context"

	"github.com/dmitrymomot/twitterkit/pkg/api"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

// Verifier checks that a session is still accepted by Twitter.
type Verifier interface {
	Verify(ctx context.Context, s *session.Session) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, s *session.Session) error

func (f VerifierFunc) Verify(ctx context.Context, s *session.Session) error { return f(ctx, s) }

// ClientProvider returns an API client signing as s.
type ClientProvider interface {
	APIClientFor(s *session.Session) (*api.Client, error)
}

// APIVerifier verifies a session by calling account/verify_credentials with
// its own credentials.
type APIVerifier struct {
	clients ClientProvider
}

var _ Verifier = (*APIVerifier)(nil)

func NewAPIVerifier(clients ClientProvider) *APIVerifier {
	return &APIVerifier{clients: clients}
}

func (v *APIVerifier) Verify(ctx context.Context, s *session.Session) error {
	c, err := v.clients.APIClientFor(s)
	if err != nil {
		return err
	}
	_, err = c.Accounts().VerifyCredentials(ctx, api.VerifyCredentialsParams{
		IncludeEntities: api.Bool(true),
		SkipStatus:      api.Bool(false),
		IncludeEmail:    api.Bool(false),
	})
	return err
}
