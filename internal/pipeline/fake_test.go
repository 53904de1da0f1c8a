package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/sitegraph/internal/browser"
)

var errFakeNavigation = errors.New("fake navigation failure")

// fakeBrowser is an in-memory browser.Factory serving fixed pages.
type fakeBrowser struct {
	mu      sync.Mutex
	pages   map[string]string
	failing map[string]bool
}

func newFakeBrowser(pages map[string]string) *fakeBrowser {
	return &fakeBrowser{pages: pages, failing: map[string]bool{}}
}

func (b *fakeBrowser) setFailing(url string, failing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[url] = failing
}

func (b *fakeBrowser) NewSession(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &fakeSession{b: b}, nil
}

type fakeSession struct {
	b   *fakeBrowser
	url string
}

func (s *fakeSession) Navigate(url string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.failing[url] {
		return errFakeNavigation
	}
	s.url = url
	return nil
}

func (s *fakeSession) Wait(time.Duration) error      { return nil }
func (s *fakeSession) WaitReady(time.Duration) error { return nil }

func (s *fakeSession) HTML() (string, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.b.pages[s.url], nil
}

func (s *fakeSession) Click(browser.ElementRef) error { return browser.ErrElementNotFound }
func (s *fakeSession) Location() (string, error)      { return s.url, nil }
func (s *fakeSession) Close() error                   { return nil }

// anchors renders a page linking to hrefs.
func anchors(hrefs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, h := range hrefs {
		sb.WriteString(`<a href="` + h + `">link</a>`)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}
