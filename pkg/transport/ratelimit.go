package transport

import (
	"net/http"
	"strconv"
	"time"
)

const (
	headerRateLimitLimit     = "x-rate-limit-limit"
	headerRateLimitRemaining = "x-rate-limit-remaining"
	headerRateLimitReset     = "x-rate-limit-reset"
)

// RateLimit is the per-endpoint quota reported with every API response.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// RateLimitFromHeader parses the x-rate-limit-* headers. Missing or malformed
// values are left zero.
func RateLimitFromHeader(h http.Header) RateLimit {
	var rl RateLimit
	if v, err := strconv.Atoi(h.Get(headerRateLimitLimit)); err == nil {
		rl.Limit = v
	}
	if v, err := strconv.Atoi(h.Get(headerRateLimitRemaining)); err == nil {
		rl.Remaining = v
	}
	if v, err := strconv.ParseInt(h.Get(headerRateLimitReset), 10, 64); err == nil {
		rl.Reset = time.Unix(v, 0).UTC()
	}
	return rl
}

// Known reports whether any rate limit header was present.
func (r RateLimit) Known() bool {
	return r.Limit != 0 || r.Remaining != 0 || !r.Reset.IsZero()
}
