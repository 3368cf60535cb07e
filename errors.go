package twitterkit

import "errors"

var (
	ErrUnknownStore        = errors.New("twitterkit: unknown session store")
	ErrSessionFileRequired = errors.New("twitterkit: TWITTER_SESSION_FILE is required for the file store")
	ErrBootstrapFailed     = errors.New("twitterkit: failed to restore sessions")
)
