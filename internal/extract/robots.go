package extract

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsGate answers robots.txt queries, fetching each origin's file once.
// An unreachable robots.txt allows everything.
type RobotsGate struct {
	client    *http.Client
	userAgent string

	mu      sync.Mutex
	origins map[string]*robotsEntry
}

type robotsEntry struct {
	once sync.Once
	data *robotstxt.RobotsData
}

// Allowed reports whether the gate's user agent may fetch rawURL.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	origin := u.Scheme + "://" + u.Host
	g.mu.Lock()
	if g.origins == nil {
		g.origins = make(map[string]*robotsEntry)
	}
	entry, ok := g.origins[origin]
	if !ok {
		entry = &robotsEntry{}
		g.origins[origin] = entry
	}
	g.mu.Unlock()

	entry.once.Do(func() {
		entry.data = g.load(ctx, origin)
	})
	if entry.data == nil {
		return true
	}
	return entry.data.TestAgent(u.RequestURI(), g.userAgent)
}

func (g *RobotsGate) load(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	client := g.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}
