// Package transport holds the http.RoundTripper chain used by API clients.
//
// OAuth1a signs requests for a signed-in user. Guest attaches the current guest
// session and, on a 401, refreshes it and retries once; requests with a body
// are only retried when GetBody is set. UserAgent and Logging are plain
// decorators meant to wrap the others:
//
//	rt := transport.NewUserAgent(version, transport.NewLogging(log, http.DefaultTransport))
//	client := &http.Client{Transport: transport.NewGuest(provider, rt)}
package transport
