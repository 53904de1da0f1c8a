package crawler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/sitegraph/internal/browser"
)

var errFakeNavigation = errors.New("fake navigation failure")

// fakeSite is an in-memory browser.Factory serving fixed pages.
type fakeSite struct {
	pages   map[string]string
	clicks  map[string]map[string]string // page url -> element -> target url
	failing map[string]bool
	delay   time.Duration

	active    atomic.Int32
	maxActive atomic.Int32

	// clicking counts open sessions that have clicked an element.
	clicking    atomic.Int32
	maxClicking atomic.Int32

	mu          sync.Mutex
	navigations map[string]int
	opened      int
	closed      int

	// open counts open sessions per navigated page; maxPages is the peak
	// number of distinct pages with an open session.
	open     map[string]int
	maxPages int
}

func newFakeSite(pages map[string]string) *fakeSite {
	return &fakeSite{
		pages:       pages,
		clicks:      map[string]map[string]string{},
		failing:     map[string]bool{},
		navigations: map[string]int{},
		open:        map[string]int{},
	}
}

func (f *fakeSite) NewSession(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raisePeak(&f.maxActive, f.active.Add(1))
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return &fakeSession{site: f}, nil
}

func raisePeak(peak *atomic.Int32, n int32) {
	for {
		m := peak.Load()
		if n <= m || peak.CompareAndSwap(m, n) {
			return
		}
	}
}

func (f *fakeSite) pagePeak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxPages
}

func (f *fakeSite) navigationsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.navigations[url]
}

func (f *fakeSite) balanced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened == f.closed
}

type fakeSession struct {
	site    *fakeSite
	current string
	page    string
	clicked bool
	once    sync.Once
}

func (s *fakeSession) Navigate(url string) error {
	s.site.mu.Lock()
	s.site.navigations[url]++
	if s.page == "" {
		s.page = url
		s.site.open[url]++
		s.site.maxPages = max(s.site.maxPages, len(s.site.open))
	}
	s.site.mu.Unlock()
	if s.site.failing[url] {
		return errFakeNavigation
	}
	s.current = url
	return nil
}

func (s *fakeSession) Wait(time.Duration) error {
	if s.site.delay > 0 {
		time.Sleep(s.site.delay)
	}
	return nil
}

func (s *fakeSession) WaitReady(time.Duration) error { return nil }

func (s *fakeSession) HTML() (string, error) {
	return s.site.pages[s.current], nil
}

func (s *fakeSession) Click(ref browser.ElementRef) error {
	target, ok := s.site.clicks[s.current][ref.String()]
	if !ok {
		return browser.ErrElementNotFound
	}
	if !s.clicked {
		s.clicked = true
		raisePeak(&s.site.maxClicking, s.site.clicking.Add(1))
	}
	s.current = target
	return nil
}

func (s *fakeSession) Location() (string, error) {
	return s.current, nil
}

func (s *fakeSession) Close() error {
	s.once.Do(func() {
		s.site.active.Add(-1)
		if s.clicked {
			s.site.clicking.Add(-1)
		}
		s.site.mu.Lock()
		s.site.closed++
		if s.page != "" {
			if s.site.open[s.page]--; s.site.open[s.page] == 0 {
				delete(s.site.open, s.page)
			}
		}
		s.site.mu.Unlock()
	})
	return nil
}

// anchors renders a page whose body links to each href.
func anchors(hrefs ...string) string {
	html := "<html><body>"
	for _, h := range hrefs {
		html += `<a href="` + h + `">link</a>`
	}
	return html + "</body></html>"
}
