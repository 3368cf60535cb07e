// Package guest provides the logged-out session used for guest-authenticated
// API calls.
//
// A Provider keeps the active guest session in a session.Manager. When the
// session is missing or older than oauth.GuestTokenLifetime it requests a new
// guest token and stores it; when the request fails the stored guest session
// is cleared so the next caller tries again.
//
//	p := guest.NewProvider(manager, oauth2Service)
//	s, err := p.CurrentSession(ctx)
//
// RefreshCurrentSession is meant for callers that saw a 401 for a specific
// session: it refreshes only if that session is still the active one.
package guest
