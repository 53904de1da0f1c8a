package crawler

import (
	"slices"
	"testing"

	"github.com/nao1215/sitegraph/internal/browser"
)

func TestParse(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
<a href="/x/">X</a>
<a href="y?b=2&a=1#frag">Y</a>
<a href="mailto:me@a.com">mail</a>
<a href="javascript:go(2)">next</a>
<a href="JavaScript:void(0)">more</a>
<a href="https://a.com/x">dup</a>
<ul><li>1</li><li><span>2</span></li><li> 3 </li><li>x4</li><li>1</li></ul>
<script>42</script>
<a href="https://B.com:443">ext</a>
</body></html>`

	got, err := Parse(markup, "https://a.com/dir/page")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantLinks := []string{
		"https://a.com/x",
		"https://a.com/dir/y?a=1&b=2",
		"https://b.com/",
	}
	if !slices.Equal(got.Links, wantLinks) {
		t.Errorf("Links = %v, want %v", got.Links, wantLinks)
	}

	wantRefs := []browser.ElementRef{
		browser.ByText{Tag: "li", Text: "1"},
		browser.ByText{Tag: "span", Text: "2"},
		browser.ByHref{Tag: "a", Href: "javascript:go(2)"},
		browser.ByHref{Tag: "a", Href: "JavaScript:void(0)"},
	}
	if !slices.Equal(got.Interactive, wantRefs) {
		t.Errorf("Interactive = %v, want %v", got.Interactive, wantRefs)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()

	got, err := Parse("", "https://a.com/")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Links) != 0 || len(got.Interactive) != 0 {
		t.Errorf("expected nothing, got %+v", got)
	}
}

func TestParse_EncodedSlashIsDistinct(t *testing.T) {
	t.Parallel()

	markup := `<a href="/files/a%2Fb">encoded</a><a href="/files/a/b">nested</a>`
	got, err := Parse(markup, "https://a.com/")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"https://a.com/files/a%2Fb", "https://a.com/files/a/b"}
	if !slices.Equal(got.Links, want) {
		t.Errorf("Links = %v, want %v", got.Links, want)
	}
}

func TestParse_InvalidPageURL(t *testing.T) {
	t.Parallel()

	if _, err := Parse("<a href='/x'>x</a>", "://bad"); err == nil {
		t.Error("expected error for invalid page url")
	}
}

func TestResolveLink(t *testing.T) {
	t.Parallel()

	base := parseURL(t, "https://a.com/a/b")

	tests := []struct {
		name   string
		href   string
		want   string
		wantOK bool
	}{
		{name: "relative", href: "c", want: "https://a.com/a/c", wantOK: true},
		{name: "parent", href: "../d/", want: "https://a.com/d", wantOK: true},
		{name: "protocol relative", href: "//cdn.a.com/x", want: "https://cdn.a.com/x", wantOK: true},
		{name: "whitespace trimmed", href: "  /e  ", want: "https://a.com/e", wantOK: true},
		{name: "fragment only", href: "#top", want: "https://a.com/a/b", wantOK: true},
		{name: "ftp dropped", href: "ftp://a.com/f", wantOK: false},
		{name: "tel dropped", href: "tel:123", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := resolveLink(base, tt.href)
			if ok != tt.wantOK {
				t.Fatalf("resolveLink(%q) ok = %v, want %v", tt.href, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("resolveLink(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}
