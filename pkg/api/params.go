package api

import (
	"net/url"
	"strconv"
	"strings"
)

// Bool returns a pointer to v for the optional flags of request parameters.
func Bool(v bool) *bool { return &v }

// values skips zero values so unset parameters are left to server defaults.
type values url.Values

func (v values) setString(key, val string) {
	if val != "" {
		v[key] = []string{val}
	}
}

func (v values) setInt(key string, val int) {
	if val != 0 {
		v[key] = []string{strconv.Itoa(val)}
	}
}

func (v values) setID(key string, val int64) {
	if val != 0 {
		v[key] = []string{strconv.FormatInt(val, 10)}
	}
}

func (v values) setIDs(key string, vals []int64) {
	if len(vals) == 0 {
		return
	}
	parts := make([]string, len(vals))
	for i, id := range vals {
		parts[i] = strconv.FormatInt(id, 10)
	}
	v[key] = []string{strings.Join(parts, ",")}
}

func (v values) setBool(key string, val *bool) {
	if val != nil {
		v[key] = []string{strconv.FormatBool(*val)}
	}
}

func (v values) setFloat(key string, val *float64) {
	if val != nil {
		v[key] = []string{strconv.FormatFloat(*val, 'f', -1, 64)}
	}
}
