package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/nao1215/sitegraph/internal/crawler"
)

// Fetcher defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 10 * 1024 * 1024
	DefaultUserAgent   = "sitegraph/1.0 (+https://github.com/nao1215/sitegraph)"
)

// HeaderFunc returns extra request headers for a URL.
type HeaderFunc func(rawURL string) map[string]string

// Document is a fetched response body decoded to UTF-8.
type Document struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

// IsJSON reports whether the response declared a JSON content type.
func (d *Document) IsJSON() bool {
	return strings.Contains(strings.ToLower(d.ContentType), "application/json")
}

// Fetcher performs the plain HTTP GETs of Phase 1.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	headers     HeaderFunc
	maxBodySize int64
	limiter     *rate.Limiter
	robots      *RobotsGate
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders sets a per-URL header source.
func WithHeaders(h HeaderFunc) FetcherOption {
	return func(f *Fetcher) {
		f.headers = h
	}
}

// WithMaxBodySize caps how many bytes of a response are read.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithRateLimit allows at most perSecond requests per second overall.
// Zero disables limiting.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *Fetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRobots enables the robots.txt gate.
func WithRobots(enabled bool) FetcherOption {
	return func(f *Fetcher) {
		if enabled {
			f.robots = &RobotsGate{}
		} else {
			f.robots = nil
		}
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher returns a Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.robots != nil {
		f.robots.client = f.client
		f.robots.userAgent = f.userAgent
	}
	return f
}

// Fetch GETs rawURL. Responses whose Content-Type contains neither
// text/html nor application/json yield crawler.ErrUnsupportedContentType.
// The status code is not checked; error pages are extracted like any other.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	if f.headers != nil {
		for k, v := range f.headers(rawURL) {
			req.Header.Set(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	contentType := resp.Header.Get("Content-Type")
	lower := strings.ToLower(contentType)
	if !strings.Contains(lower, "text/html") && !strings.Contains(lower, "application/json") {
		return nil, fmt.Errorf("%w: %q", crawler.ErrUnsupportedContentType, contentType)
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	f.logger.Debug("fetched", "url", rawURL, "status", resp.StatusCode, "bytes", len(body))
	return &Document{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        string(body),
	}, nil
}
