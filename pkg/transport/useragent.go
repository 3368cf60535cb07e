package transport

import "net/http"

// UserAgentPrefix is the product token of every request sent by the SDK.
const UserAgentPrefix = "TwitterKitGo/"

// UserAgent sets the User-Agent header on every request.
type UserAgent struct {
	Next  http.RoundTripper
	Value string
}

// NewUserAgent builds the "TwitterKitGo/<version>" user agent transport.
func NewUserAgent(version string, next http.RoundTripper) *UserAgent {
	return &UserAgent{Next: next, Value: UserAgentPrefix + version}
}

func (t *UserAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.Value)
	return next(t.Next).RoundTrip(r)
}
