package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit/pkg/identity"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

type stubTokens struct{}

func (stubTokens) RequestTempToken(context.Context, string) (*oauth.Response, error) {
	return &oauth.Response{Token: oauth.NewOAuth1aToken("temp", "temp-secret")}, nil
}

func (stubTokens) AuthorizeURL(oauth.Token) string { return "https://api.twitter.com/oauth/authorize" }

func (stubTokens) RequestAccessToken(context.Context, oauth.Token, string) (*oauth.Response, error) {
	return &oauth.Response{Token: oauth.NewOAuth1aToken("t", "s"), UserName: "jack", UserID: 12}, nil
}

// stubAuthorizer returns its verifier at once, or waits for cancellation when
// block is set.
type stubAuthorizer struct{ block bool }

func (stubAuthorizer) Callback(context.Context) (string, error) { return oauth.OutOfBandCallback, nil }

func (a stubAuthorizer) Authorize(ctx context.Context, _ identity.AuthorizeRequest) (string, error) {
	if a.block {
		<-ctx.Done()
		return "", oauth.ErrCanceled
	}
	return "verifier", nil
}

func newAuthClient() *identity.AuthClient {
	m := session.NewPersistedManager(session.NewMemoryStore(), session.UserPrefix, session.UserActiveKey)
	return identity.NewAuthClient(stubTokens{}, m, nil)
}

func TestAwaitLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("completes", func(t *testing.T) {
		t.Parallel()
		s, err := awaitLogin(ctx, newAuthClient(), stubAuthorizer{}, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "jack", s.UserName)
	})

	t.Run("zero timeout waits", func(t *testing.T) {
		t.Parallel()
		s, err := awaitLogin(ctx, newAuthClient(), stubAuthorizer{}, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 12, s.ID)
	})

	t.Run("times out and cancels the flow", func(t *testing.T) {
		t.Parallel()
		auth := newAuthClient()
		_, err := awaitLogin(ctx, auth, stubAuthorizer{block: true}, 20*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
		assert.False(t, auth.InProgress(), "flow finished before returning")
	})

	t.Run("canceled by the caller", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := awaitLogin(cctx, newAuthClient(), stubAuthorizer{block: true}, time.Minute)
		require.Error(t, err)
		assert.Equal(t, "login canceled", err.Error())
	})
}
