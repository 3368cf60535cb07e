package identity

import (
	"context"

	"github.com/dmitrymomot/twitterkit/pkg/oauth"
)

// AuthorizeRequest is what the user has to act on.
type AuthorizeRequest struct {
	// URL is the authorize page for the temporary token.
	URL         string
	CallbackURL string
	TempToken   oauth.Token
}

// Authorizer performs the user-facing step of sign-in.
//
// Callback is called first and returns the oauth_callback value the temporary
// token is requested with. Authorize then waits for the user and returns the
// oauth_verifier. Returning oauth.ErrCanceled, or any error once ctx is done,
// ends the flow as canceled.
//
// Authorizers holding resources may also implement io.Closer; the controller
// closes them when the flow ends.
type Authorizer interface {
	Callback(ctx context.Context) (string, error)
	Authorize(ctx context.Context, req AuthorizeRequest) (verifier string, err error)
}
