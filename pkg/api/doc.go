// Package api is a typed client for the Twitter REST API v1.1.
//
// A Client does not authenticate on its own. Build it over an *http.Client
// whose transport signs requests, typically transport.OAuth1a for a user or
// transport.Guest for logged-out access:
//
//	c := api.New(&http.Client{Transport: rt})
//	tw, err := c.Statuses().Show(ctx, 20, api.TweetParams{})
//
// Non-2xx responses return *APIError with the first API error code and the
// rate limit headers. Requests that never got a response return
// *NetworkError.
package api
