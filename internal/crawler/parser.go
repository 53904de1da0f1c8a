package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/sitegraph/internal/browser"
	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/urlnorm"
)

// digitsOnly matches text nodes that are a bare page number.
var digitsOnly = regexp.MustCompile(`^\d+$`)

// ParseResult is what a rendered page offers for traversal.
type ParseResult struct {
	// Links are the page's anchors resolved against the page URL,
	// restricted to http(s), normalized and deduplicated in document order.
	Links []string

	// Interactive lists elements whose target is only known after a
	// click: numeric text elements first, then javascript: anchors.
	Interactive []browser.ElementRef
}

// Parse scans rendered markup. pageURL resolves relative hrefs.
func Parse(markup, pageURL string) (*ParseResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	result := &ParseResult{}
	seenRefs := make(map[browser.ElementRef]struct{})
	addRef := func(ref browser.ElementRef) {
		if _, ok := seenRefs[ref]; ok {
			return
		}
		seenRefs[ref] = struct{}{}
		result.Interactive = append(result.Interactive, ref)
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		parent := s.Get(0)
		if parent.Data == "script" || parent.Data == "style" {
			return
		}
		for c := parent.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && digitsOnly.MatchString(c.Data) {
				addRef(browser.ByText{Tag: parent.Data, Text: c.Data})
			}
		}
	})

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.Contains(strings.ToLower(href), "javascript:") {
			addRef(browser.ByHref{Tag: "a", Href: href})
			return
		}
		if link, ok := resolveLink(base, href); ok {
			links = append(links, link)
		}
	})
	result.Links = linkgraph.Dedupe(links)

	return result, nil
}

// resolveLink resolves href against base and normalizes it. Only http and
// https results are accepted.
func resolveLink(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	normalized, err := urlnorm.Normalize(abs.String())
	if err != nil {
		return "", false
	}
	return normalized, true
}
