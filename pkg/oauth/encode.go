package oauth

import (
	"net/url"
	"strings"
)

// PercentEncode applies RFC 3986 encoding: everything except A-Z a-z 0-9 - . _ ~
// becomes %XX with uppercase hex. QueryEscape already leaves exactly that set
// alone apart from writing spaces as "+".
func PercentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ParseParams splits a form or query string into decoded values, keeping
// repeated keys in order. Keys without "=" map to "". Malformed escapes keep
// the raw text.
func ParseParams(s string) url.Values {
	out := make(url.Values)
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if k == "" {
			continue
		}
		out.Add(unescape(k), unescape(v))
	}
	return out
}

func unescape(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}
