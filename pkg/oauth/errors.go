package oauth

import (
	"errors"
	"fmt"
)

// Reasons carried by AuthError.
const (
	ReasonCanceled      = "canceled"
	ReasonRequestToken  = "request_token"
	ReasonAuthorization = "authorization"
	ReasonAccessToken   = "access_token"
	ReasonParse         = "parse"
	ReasonAppToken      = "app_token"
	ReasonGuestToken    = "guest_token"
	ReasonInProgress    = "in_progress"
)

// AuthError reports an authentication failure. It holds only plain fields so it
// can be marshaled and handed across process boundaries.
type AuthError struct {
	Reason     string `json:"reason"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oauth: %s: %s (status %d)", e.Reason, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("oauth: %s: %s", e.Reason, e.Message)
}

// Is matches any *AuthError with the same Reason, so errors.Is(err, ErrCanceled)
// holds for every canceled flow.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Reason == e.Reason
}

// NewAuthError flattens cause into the message.
func NewAuthError(reason string, cause error) *AuthError {
	ae := &AuthError{Reason: reason}
	if cause == nil {
		ae.Message = reason
		return ae
	}
	var inner *AuthError
	if errors.As(cause, &inner) {
		ae.Message = inner.Message
		ae.StatusCode = inner.StatusCode
		return ae
	}
	var status *StatusError
	if errors.As(cause, &status) {
		ae.StatusCode = status.StatusCode
	}
	ae.Message = cause.Error()
	return ae
}

// ErrCanceled is the AuthError for a user-abandoned sign-in.
var ErrCanceled = &AuthError{Reason: ReasonCanceled, Message: "authorization failed, request was canceled"}

// IsCanceled reports whether err is an AuthError with ReasonCanceled.
func IsCanceled(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Reason == ReasonCanceled
}

// StatusError is a non-2xx response from an OAuth endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oauth: unexpected status %d: %s", e.StatusCode, e.Body)
}
