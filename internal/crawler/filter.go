package crawler

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// LinkFilter reports whether a link should be traversed.
type LinkFilter func(link string) bool

// numericPage matches paginated article URLs such as /news/123.html.
var numericPage = regexp.MustCompile(`/\d+\.html$`)

// ExcludeNumericPages rejects URLs ending in /<digits>.html.
func ExcludeNumericPages(link string) bool {
	return !numericPage.MatchString(link)
}

// AllOf accepts a link only when every non-nil filter accepts it.
func AllOf(filters ...LinkFilter) LinkFilter {
	return func(link string) bool {
		for _, f := range filters {
			if f != nil && !f(link) {
				return false
			}
		}
		return true
	}
}

// PatternFilter builds a filter from glob patterns matched against the URL
// path. Ignore patterns win; when follow patterns are given, a path must
// match at least one. It returns nil when both lists are empty.
func PatternFilter(ignore, follow []string) LinkFilter {
	if len(ignore) == 0 && len(follow) == 0 {
		return nil
	}
	return func(link string) bool {
		u, err := url.Parse(link)
		if err != nil {
			return false
		}
		path := u.Path
		if path == "" {
			path = "/"
		}

		for _, pattern := range ignore {
			if matchPattern(pattern, path) {
				return false
			}
		}
		if len(follow) == 0 {
			return true
		}
		for _, pattern := range follow {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}
}

// matchPattern checks if a path matches a glob pattern.
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in .pdf
//   - other patterns use filepath.Match, and patterns without "/" are
//     also tried against the last path segment
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
		return true
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
