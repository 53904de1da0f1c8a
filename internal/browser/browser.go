package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Session is a single browser tab. A Session is bound to the context it
// was created with and must be closed by the caller.
type Session interface {
	// Navigate loads url and waits for the navigation to commit.
	Navigate(url string) error
	// Wait pauses for d, returning early if the session context ends.
	Wait(d time.Duration) error
	// WaitReady polls document.readyState until it is "complete" or
	// maxWait elapses, in which case ErrReadyTimeout is returned.
	WaitReady(maxWait time.Duration) error
	// HTML returns the outer HTML of the rendered document.
	HTML() (string, error)
	// Click moves the pointer over the referenced element and clicks it.
	Click(ref ElementRef) error
	// Location returns the current document URL.
	Location() (string, error)
	// Close releases the tab.
	Close() error
}

// Factory opens sessions.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// ElementRef identifies an interactive element on a rendered page.
// The concrete types are ByHref and ByText.
type ElementRef interface {
	fmt.Stringer
	isElementRef()
}

// ByHref matches an element by tag name and exact href attribute.
type ByHref struct {
	Tag  string
	Href string
}

// ByText matches an element by tag name and exact text content.
type ByText struct {
	Tag  string
	Text string
}

func (ByHref) isElementRef() {}
func (ByText) isElementRef() {}

func (r ByHref) String() string { return fmt.Sprintf("<%s href=%q>", r.Tag, r.Href) }
func (r ByText) String() string { return fmt.Sprintf("<%s>%s</%s>", r.Tag, r.Text, r.Tag) }

// XPath returns an expression selecting the elements matched by ref.
func XPath(ref ElementRef) string {
	switch r := ref.(type) {
	case ByHref:
		return fmt.Sprintf("//%s[@href=%s]", xpathTag(r.Tag), xpathLiteral(r.Href))
	case ByText:
		return fmt.Sprintf("//%s[text()=%s]", xpathTag(r.Tag), xpathLiteral(r.Text))
	default:
		panic(fmt.Sprintf("browser: unknown element reference %T", ref))
	}
}

func xpathTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "*"
	}
	for _, c := range tag {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return "*"
		}
	}
	return tag
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}
