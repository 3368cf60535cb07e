package oauth_test

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit/pkg/oauth"
)

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	guest := oauth.Token{Kind: oauth.KindGuest, CreatedAt: issued, TokenType: "bearer", AccessToken: "a", GuestToken: "g"}

	assert.False(t, guest.IsExpired(issued.Add(3*time.Hour-time.Millisecond)))
	assert.True(t, guest.IsExpired(issued.Add(3*time.Hour)))
	assert.True(t, oauth.Token{Kind: oauth.KindGuest}.IsExpired(issued), "zero created_at is expired")

	user := oauth.Token{Kind: oauth.KindOAuth1a, CreatedAt: issued, Token: "t", Secret: "s"}
	assert.False(t, user.IsExpired(issued.Add(1000*time.Hour)))
	app := oauth.Token{Kind: oauth.KindOAuth2, TokenType: "bearer", AccessToken: "a"}
	assert.False(t, app.IsExpired(issued.Add(1000*time.Hour)))
}

func TestTokenJSON(t *testing.T) {
	t.Parallel()

	issued := time.UnixMilli(1714564800123).UTC()

	t.Run("guest round trip", func(t *testing.T) {
		in := oauth.Token{Kind: oauth.KindGuest, CreatedAt: issued, TokenType: "bearer", AccessToken: "a", GuestToken: "g"}
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		assert.JSONEq(t, `{"auth_type":"guest","auth_token":{"created_at":1714564800123,"token_type":"bearer","access_token":"a","guest_token":"g"}}`, string(raw))

		var out oauth.Token
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.True(t, in.Equal(out))
	})

	t.Run("oauth1a round trip", func(t *testing.T) {
		in := oauth.Token{Kind: oauth.KindOAuth1a, CreatedAt: issued, Token: "t", Secret: "s"}
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		assert.JSONEq(t, `{"auth_type":"oauth1a","auth_token":{"created_at":1714564800123,"token":"t","secret":"s"}}`, string(raw))

		var out oauth.Token
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.True(t, in.Equal(out))
	})

	t.Run("missing created_at decodes to zero", func(t *testing.T) {
		var out oauth.Token
		require.NoError(t, json.Unmarshal([]byte(`{"auth_type":"oauth2","auth_token":{"token_type":"bearer","access_token":"a"}}`), &out))
		assert.Equal(t, oauth.KindOAuth2, out.Kind)
		assert.True(t, out.CreatedAt.IsZero())
		assert.Equal(t, "bearer a", out.AuthorizationHeader())
	})

	t.Run("unknown kind", func(t *testing.T) {
		var out oauth.Token
		err := json.Unmarshal([]byte(`{"auth_type":"oauth3","auth_token":{}}`), &out)
		assert.ErrorIs(t, err, oauth.ErrUnknownTokenKind)

		_, err = json.Marshal(oauth.Token{Kind: "x"})
		assert.ErrorIs(t, err, oauth.ErrUnknownTokenKind)
	})

	t.Run("string hides secrets", func(t *testing.T) {
		s := oauth.NewOAuth1aToken("public", "very-secret").String()
		assert.NotContains(t, s, "very-secret")
		assert.Contains(t, s, "oauth1a")
	})
}

func TestSameCredentials(t *testing.T) {
	t.Parallel()

	a := oauth.NewGuestToken("bearer", "a", "g")
	b := a
	b.CreatedAt = a.CreatedAt.Add(time.Minute)
	assert.False(t, a.Equal(b))
	assert.True(t, a.SameCredentials(b))
	b.GuestToken = "other"
	assert.False(t, a.SameCredentials(b))
}

func TestPercentEncode(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"abcXYZ019-._~", "abcXYZ019-._~"},
		{"Ladies + Gentlemen", "Ladies%20%2B%20Gentlemen"},
		{"a*b", "a%2Ab"},
		{"!", "%21"},
		{"é", "%C3%A9"},
		{"a=b&c", "a%3Db%26c"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, oauth.PercentEncode(tc.in), tc.in)
	}
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	got := oauth.ParseParams("oauth_token=a%20b&flag&=skip&x=1=2&bad=%zz")
	assert.Equal(t, url.Values{
		"oauth_token": {"a b"},
		"flag":        {""},
		"x":           {"1=2"},
		"bad":         {"%zz"},
	}, got)

	assert.Equal(t, []string{"1", "2"}, oauth.ParseParams("k=1&k=2")["k"])
}
