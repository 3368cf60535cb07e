package identity

import (
	"errors"

	"github.com/dmitrymomot/twitterkit/pkg/oauth"
)

var (
	// ErrAuthorizeInProgress rejects a second concurrent sign-in.
	ErrAuthorizeInProgress = &oauth.AuthError{Reason: oauth.ReasonInProgress, Message: "authorize already in progress"}

	ErrTokenMismatch = errors.New("identity: callback token does not match the request token")
	ErrFlowFinished  = errors.New("identity: sign-in flow already finished")
)

const (
	msgRequestToken  = "failed to get request token"
	msgAuthorization = "authorization completed with an error"
	msgBundle        = "failed to get authorization, bundle incomplete"
	msgAccessToken   = "failed to get access token"
)

// authFailure keeps the status code of cause but not its text, so the result
// never leaks transport details.
func authFailure(reason, message string, cause error) *oauth.AuthError {
	ae := &oauth.AuthError{Reason: reason, Message: message}
	var status *oauth.StatusError
	if errors.As(cause, &status) {
		ae.StatusCode = status.StatusCode
	}
	var inner *oauth.AuthError
	if ae.StatusCode == 0 && errors.As(cause, &inner) {
		ae.StatusCode = inner.StatusCode
	}
	return ae
}
