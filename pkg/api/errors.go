package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/twitterkit/pkg/transport"
)

// Error codes returned in the errors array that callers commonly branch on.
const (
	CodeCouldNotAuthenticate = 32
	CodeNotFound             = 34
	CodeRateLimitExceeded    = 88
	CodeInvalidOrExpired     = 89
	CodeStatusDuplicate      = 187
	CodeBadAuthentication    = 215
	CodeAlreadyFavorited     = 139
	CodeAlreadyRetweeted     = 327
)

var ErrEmptyID = errors.New("api: id is required")

// APIError is a non-2xx response from the REST API. Code and Message come from
// the first element of the errors array; both are zero when the body could not
// be parsed.
type APIError struct {
	StatusCode int                 `json:"status_code"`
	Code       int                 `json:"code"`
	Message    string              `json:"message"`
	RateLimit  transport.RateLimit `json:"rate_limit"`
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("api: HTTP request failed, status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: HTTP request failed, status %d: %d %s", e.StatusCode, e.Code, e.Message)
}

// IsRateLimited reports whether err is an APIError for an exhausted quota.
func IsRateLimited(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.StatusCode == http.StatusTooManyRequests || ae.Code == CodeRateLimitExceeded)
}

// IsUnauthorized reports whether err means the credentials were rejected.
func IsUnauthorized(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.Code {
	case CodeCouldNotAuthenticate, CodeInvalidOrExpired, CodeBadAuthentication:
		return true
	}
	return ae.StatusCode == http.StatusUnauthorized
}

type errorsBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func newAPIError(status int, header http.Header, body []byte) *APIError {
	e := &APIError{StatusCode: status, RateLimit: transport.RateLimitFromHeader(header)}
	var eb errorsBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Errors) > 0 {
		e.Code = eb.Errors[0].Code
		e.Message = eb.Errors[0].Message
	}
	return e
}

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
