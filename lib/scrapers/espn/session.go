// Package espn pulls league history out of ESPN's private fantasy
// football API. The API is undocumented and shifts between deployments,
// so every read goes through request-variant fallback rather than a
// single canonical endpoint.
package espn

import (
	"errors"
	"strings"
)

var ErrMissingCredential = errors.New("no espn_s2 or SWID value found in cookie material")

// NormalizeCookie distills pasted cookie material (a bare header value,
// a "Cookie: ..." line, or a full browser cookie dump) down to the two
// credentials the API checks, in stable order. The output is a valid
// Cookie header value.
func NormalizeCookie(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "cookie:") {
		raw = strings.TrimSpace(raw[7:])
	}
	raw = strings.Join(strings.Fields(raw), " ")

	values := map[string]string{}
	for _, part := range strings.Split(raw, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "espn_s2" || key == "SWID" {
			values[key] = strings.TrimSpace(value)
		}
	}

	var ordered []string
	if v, ok := values["espn_s2"]; ok {
		ordered = append(ordered, "espn_s2="+v)
	}
	if v, ok := values["SWID"]; ok {
		ordered = append(ordered, "SWID="+v)
	}
	if len(ordered) == 0 {
		return "", ErrMissingCredential
	}
	return strings.Join(ordered, "; "), nil
}
