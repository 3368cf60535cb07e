package oauth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signer produces OAuth1a HMAC-SHA1 Authorization headers.
type Signer struct {
	creds Credentials
	nonce func() string
	now   func() time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithNonce fixes the nonce source, mainly for deterministic tests.
func WithNonce(fn func() string) SignerOption {
	return func(s *Signer) {
		if fn != nil {
			s.nonce = fn
		}
	}
}

// WithClock fixes the timestamp source.
func WithClock(fn func() time.Time) SignerOption {
	return func(s *Signer) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewSigner(creds Credentials, opts ...SignerOption) *Signer {
	s := &Signer{
		creds: creds,
		nonce: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes what gets signed. Token is nil for the request token step;
// Form holds decoded application/x-www-form-urlencoded body parameters.
type Request struct {
	Method   string
	URL      string
	Token    *Token
	Callback string
	Form     url.Values
}

// AuthorizationHeader signs r and returns the "OAuth ..." header value.
func (s *Signer) AuthorizationHeader(r Request) (string, error) {
	params, err := s.sign(r)
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `%s="%s"`, PercentEncode(k), PercentEncode(params[k]))
	}
	return b.String(), nil
}

// EchoHeaders returns the OAuth Echo header pair that lets a third party
// replay the signed request against Twitter.
func (s *Signer) EchoHeaders(r Request) (map[string]string, error) {
	h, err := s.AuthorizationHeader(r)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderAuthServiceProvider:            r.URL,
		HeaderVerifyCredentialsAuthorization: h,
	}, nil
}

// sign returns the oauth_* parameters including oauth_signature.
func (s *Signer) sign(r Request) (map[string]string, error) {
	if r.Token != nil && r.Token.Kind != KindOAuth1a {
		return nil, fmt.Errorf("%w: signing needs %s, got %s", ErrWrongTokenKind, KindOAuth1a, r.Token.Kind)
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("oauth: parse url: %w", err)
	}

	oauthParams := map[string]string{
		ParamConsumerKey:     s.creds.ConsumerKey,
		ParamNonce:           s.nonce(),
		ParamSignatureMethod: SignatureMethod,
		ParamTimestamp:       strconv.FormatInt(s.now().Unix(), 10),
		ParamVersion:         Version,
	}
	if r.Callback != "" {
		oauthParams[ParamCallback] = r.Callback
	}
	tokenSecret := ""
	if r.Token != nil {
		oauthParams[ParamToken] = r.Token.Token
		tokenSecret = r.Token.Secret
	}

	base := SignatureBase(r.Method, u, oauthParams, r.Form)
	key := PercentEncode(s.creds.ConsumerSecret) + "&" + PercentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	oauthParams[ParamSignature] = base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return oauthParams, nil
}

type pair struct{ k, v string }

// SignatureBase builds METHOD&enc(base url)&enc(normalized params) where the
// parameter set is the oauth parameters, the URL query and the form body.
func SignatureBase(method string, u *url.URL, oauthParams map[string]string, form url.Values) string {
	var pairs []pair
	for k, v := range oauthParams {
		pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
	}
	for k, vs := range u.Query() {
		for _, v := range vs {
			pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
		}
	}
	for k, vs := range form {
		for _, v := range vs {
			pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	var norm strings.Builder
	for i, p := range pairs {
		if i > 0 {
			norm.WriteByte('&')
		}
		norm.WriteString(p.k)
		norm.WriteByte('=')
		norm.WriteString(p.v)
	}

	return strings.ToUpper(method) + "&" + PercentEncode(baseURL(u)) + "&" + PercentEncode(norm.String())
}

func baseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}
