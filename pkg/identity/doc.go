// Package identity implements three-legged OAuth1a sign-in.
//
// A Controller walks one flow through its states:
//
//	idle → temp_token_requested → awaiting_user_authorization
//	     → access_token_requested → complete
//
// Any step may instead end in failed, with an *oauth.AuthError naming the
// step. Canceling ctx, a "denied" callback, or an empty PIN all produce
// oauth.ErrCanceled.
//
// The user step is pluggable through Authorizer. CallbackServer receives the
// redirect on a loopback port and PINAuthorizer implements the out-of-band
// flow:
//
//	ac := identity.NewAuthClient(oauth1a, manager, core)
//	s, err := ac.Authorize(ctx, identity.NewCallbackServer(identity.WithBrowser(identity.OpenBrowser)))
//
// AuthClient allows one flow at a time and stores the signed-in session as
// the active one.
package identity
