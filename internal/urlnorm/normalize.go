package urlnorm

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// ErrInvalidURL is returned when a URL cannot be parsed.
var ErrInvalidURL = errors.New("invalid URL")

// purellFlags covers the case, port and fragment rules. Path and query
// are shaped afterwards: purell re-escapes the decoded path, which turns
// %2F into a separator, leaves query keys unescaped and trims a root "/"
// to an empty path.
const purellFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment

// Normalize returns the canonical form of raw.
//
// Scheme and host are lowercased, default ports (80 for http, 443 for
// https) are removed, an empty path becomes "/" and any other path loses
// its trailing slashes, query parameters are decoded, sorted by key and
// value and re-encoded with blank values kept, and the fragment is dropped.
// Normalize is idempotent.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURL, raw, err)
	}
	escapedPath := u.EscapedPath()

	u, err = url.Parse(purell.NormalizeURL(u, purellFlags))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURL, raw, err)
	}
	u.Fragment = ""
	u.RawFragment = ""

	// mailto:, javascript: and friends have no hierarchical path to shape.
	if u.Opaque != "" {
		return u.String(), nil
	}

	// The path keeps its original escaping; only trailing slashes go.
	rawPath := trimPath(escapedPath)
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURL, raw, err)
	}
	u.Path = path
	u.RawPath = rawPath
	u.RawQuery = sortQuery(u.RawQuery)
	u.ForceQuery = false

	return u.String(), nil
}

// Equal reports whether a and b share a canonical form. When either URL
// fails to parse the raw strings are compared.
func Equal(a, b string) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return na == nb
}

// Origin returns the canonical "scheme://host" of raw.
func Origin(raw string) (string, error) {
	n, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(n)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %s: missing scheme or host", ErrInvalidURL, raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

// SameOrigin reports whether a and b share scheme and host.
func SameOrigin(a, b string) bool {
	oa, err := Origin(a)
	if err != nil {
		return false
	}
	ob, err := Origin(b)
	if err != nil {
		return false
	}
	return oa == ob
}

func trimPath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

type queryPair struct {
	key   string
	value string
}

// sortQuery re-encodes a raw query with its pairs in key/value order.
// A query that does not parse is kept verbatim.
func sortQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}

	pairs := make([]queryPair, 0, len(values))
	for k, vs := range values {
		for _, v := range vs {
			pairs = append(pairs, queryPair{key: k, value: v})
		}
	}
	slices.SortFunc(pairs, func(a, b queryPair) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.value, b.value)
	})

	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String()
}
