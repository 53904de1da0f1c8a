package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
)

func parseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", raw, err)
	}
	return u
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"admin prefix match", "/admin/*", "/admin/dashboard", true},
		{"admin prefix exact", "/admin/*", "/admin", true},
		{"admin prefix no match", "/admin/*", "/user/profile", false},
		{"admin prefix partial no match", "/admin/*", "/administrator", false},
		{"pdf extension", "*.pdf", "/docs/file.pdf", true},
		{"pdf extension no match", "*.pdf", "/docs/file.txt", false},
		{"exact match", "/logout", "/logout", true},
		{"exact no match", "/logout", "/login", false},
		{"single char wildcard", "/api/v?/users", "/api/v1/users", true},
		{"single char wildcard no match", "/api/v?/users", "/api/v10/users", false},
		{"filename glob", "draft-*", "/posts/draft-1", true},
		{"nested admin", "/admin/*", "/admin/users/edit", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestPatternFilter(t *testing.T) {
	t.Parallel()

	if PatternFilter(nil, nil) != nil {
		t.Error("expected nil filter without patterns")
	}

	ignore := PatternFilter([]string{"/admin/*", "*.pdf"}, nil)
	if ignore("https://a.com/admin/x") {
		t.Error("ignored path accepted")
	}
	if ignore("https://a.com/f.pdf") {
		t.Error("ignored extension accepted")
	}
	if !ignore("https://a.com/news") {
		t.Error("plain path rejected")
	}
	if !ignore("https://a.com") {
		t.Error("empty path rejected")
	}

	follow := PatternFilter([]string{"/blog/private/*"}, []string{"/blog/*"})
	if !follow("https://a.com/blog/post") {
		t.Error("followed path rejected")
	}
	if follow("https://a.com/shop") {
		t.Error("path outside follow patterns accepted")
	}
	if follow("https://a.com/blog/private/x") {
		t.Error("ignore should win over follow")
	}
}

func TestExcludeNumericPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		link string
		want bool
	}{
		{"https://a.com/news/123.html", false},
		{"https://a.com/1.html", false},
		{"https://a.com/news/page2.html", true},
		{"https://a.com/news/123.html?x=1", true},
		{"https://a.com/news", true},
	}
	for _, tt := range tests {
		if got := ExcludeNumericPages(tt.link); got != tt.want {
			t.Errorf("ExcludeNumericPages(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}

func TestAllOf(t *testing.T) {
	t.Parallel()

	f := AllOf(ExcludeNumericPages, nil, PatternFilter([]string{"/tmp/*"}, nil))
	if f("https://a.com/tmp/a") || f("https://a.com/7.html") {
		t.Error("AllOf accepted a rejected link")
	}
	if !f("https://a.com/ok") {
		t.Error("AllOf rejected an accepted link")
	}
	if !AllOf()("anything") {
		t.Error("empty AllOf should accept")
	}
}

func TestParseFailurePolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]FailurePolicy{"": FailFast, "fail-fast": FailFast, "skip": SkipFailed} {
		got, err := ParseFailurePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseFailurePolicy(%q) = %v, %v", in, got, err)
		}
		if in != "" && got.String() != in {
			t.Errorf("String() = %q, want %q", got.String(), in)
		}
	}
	if _, err := ParseFailurePolicy("retry"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestPageError(t *testing.T) {
	t.Parallel()

	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := fmt.Errorf("crawl: %w", pageError("navigate", "https://a.com/", ErrNavigation, cause))

	if !errors.Is(err, ErrNavigation) {
		t.Error("expected ErrNavigation")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause")
	}
	var pe *PageError
	if !errors.As(err, &pe) || pe.URL != "https://a.com/" || pe.Op != "navigate" {
		t.Errorf("errors.As = %+v", pe)
	}

	bare := pageError("click", "https://a.com/", ErrElementInteraction, nil)
	if !errors.Is(bare, ErrElementInteraction) {
		t.Error("expected ErrElementInteraction")
	}
}
