package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitegraph/internal/browser"
	"github.com/nao1215/sitegraph/internal/filetype"
	"github.com/nao1215/sitegraph/internal/model"
)

// Extractor defaults.
const (
	DefaultConcurrency        = 10
	DefaultBrowserConcurrency = 3
	DefaultMaxWait            = 10 * time.Second
	DefaultThreshold          = 400
)

// Stats summarizes one Extract call.
type Stats struct {
	Pages            int
	Files            int
	FetchFailures    int
	BrowserFallbacks int
	BrowserFailures  int
}

// Extractor runs two-phase content extraction.
type Extractor struct {
	fetcher            *Fetcher
	browser            browser.Factory
	classifier         *filetype.Classifier
	concurrency        int
	browserConcurrency int
	maxWait            time.Duration
	threshold          int
	logger             *slog.Logger
	progress           func(url string)
	now                func() time.Time

	stats Stats
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFetcher replaces the Phase 1 fetcher.
func WithFetcher(f *Fetcher) Option {
	return func(e *Extractor) {
		if f != nil {
			e.fetcher = f
		}
	}
}

// WithBrowser sets the Phase 2 browser. Without one, short pages keep
// their Phase 1 content.
func WithBrowser(b browser.Factory) Option {
	return func(e *Extractor) {
		e.browser = b
	}
}

// WithClassifier sets the file classifier.
func WithClassifier(c *filetype.Classifier) Option {
	return func(e *Extractor) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithConcurrency sets Phase 1 concurrency.
func WithConcurrency(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithBrowserConcurrency sets Phase 2 concurrency.
func WithBrowserConcurrency(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.browserConcurrency = n
		}
	}
}

// WithMaxWait bounds the wait for document.readyState in Phase 2.
func WithMaxWait(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.maxWait = d
		}
	}
}

// WithThreshold sets the body length, in characters, below which a page
// is re-extracted with the browser.
func WithThreshold(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.threshold = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProgress sets a hook called after each page is extracted. It may be
// called from several goroutines at once.
func WithProgress(f func(url string)) Option {
	return func(e *Extractor) {
		e.progress = f
	}
}

// NewExtractor returns an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		classifier:         filetype.New(nil),
		concurrency:        DefaultConcurrency,
		browserConcurrency: DefaultBrowserConcurrency,
		maxWait:            DefaultMaxWait,
		threshold:          DefaultThreshold,
		logger:             slog.Default(),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fetcher == nil {
		e.fetcher = NewFetcher(WithFetcherLogger(e.logger))
	}
	return e
}

// Stats returns counters of the last Extract call.
func (e *Extractor) Stats() Stats {
	return e.stats
}

// Extract returns one record per URL: the Phase 1 records that were kept,
// in input order, followed by the Phase 2 records, in input order. Page
// failures yield empty content; only context cancellation is an error.
// Extract is not safe for concurrent use.
func (e *Extractor) Extract(ctx context.Context, urls []string) ([]model.Record, error) {
	e.stats = Stats{Pages: len(urls)}
	static := make([]model.Record, len(urls))
	failed := make([]bool, len(urls))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for i, u := range urls {
		eg.Go(func() error {
			if e.classifier.IsFile(u) {
				e.logger.Debug("skipping file url", "url", u)
				static[i] = model.NewRecord(u, model.Content{}, e.now())
				return nil
			}
			content, err := e.static(egCtx, u)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				failed[i] = true
				e.logger.Warn("static extraction failed", "url", u, "error", err)
			}
			static[i] = model.NewRecord(u, content, e.now())
			e.report(u)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var kept []model.Record
	var requeue []string
	for i, r := range static {
		if failed[i] {
			e.stats.FetchFailures++
		}
		if e.classifier.IsFile(r.URL) {
			e.stats.Files++
			kept = append(kept, r)
			continue
		}
		if e.browser != nil && utf8.RuneCountInString(r.Content.Body) < e.threshold {
			requeue = append(requeue, r.URL)
			continue
		}
		kept = append(kept, r)
	}
	if len(requeue) == 0 {
		return kept, nil
	}

	e.logger.Info("rendering short pages in browser", "count", len(requeue), "threshold", e.threshold)
	dynamic, err := e.renderAll(ctx, requeue)
	if err != nil {
		return nil, err
	}
	return append(kept, dynamic...), nil
}

func (e *Extractor) renderAll(ctx context.Context, urls []string) ([]model.Record, error) {
	records := make([]model.Record, len(urls))
	failures := make([]bool, len(urls))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.browserConcurrency)
	for i, u := range urls {
		eg.Go(func() error {
			markup, err := e.render(egCtx, u)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				failures[i] = true
				e.logger.Warn("browser extraction failed", "url", u, "error", err)
			}
			records[i] = model.NewRecord(u, model.Content{Body: markup}, e.now())
			e.report(u)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	e.stats.BrowserFallbacks += len(urls)
	for _, f := range failures {
		if f {
			e.stats.BrowserFailures++
		}
	}
	return records, nil
}

// static fetches u and extracts its content. JSON bodies are kept as is.
func (e *Extractor) static(ctx context.Context, u string) (model.Content, error) {
	doc, err := e.fetcher.Fetch(ctx, u)
	if err != nil {
		return model.Content{}, err
	}
	if doc.IsJSON() {
		return model.Content{Body: doc.Body}, nil
	}
	content, err := Readable(doc.Body, u)
	if err != nil {
		e.logger.Debug("readability extraction failed", "url", u, "error", err)
		return model.Content{}, nil
	}
	return content, nil
}

// render loads u in the browser and returns the rendered markup. A page
// that is still loading after maxWait is read as it is.
func (e *Extractor) render(ctx context.Context, u string) (string, error) {
	session, err := e.browser.NewSession(ctx)
	if err != nil {
		return "", err
	}
	defer session.Close() //nolint:errcheck

	if err := session.Navigate(u); err != nil {
		return "", err
	}
	if err := session.WaitReady(e.maxWait); err != nil {
		if !errors.Is(err, browser.ErrReadyTimeout) {
			return "", err
		}
		e.logger.Debug("page not ready, reading anyway", "url", u, "max_wait", e.maxWait)
	}
	return session.HTML()
}

func (e *Extractor) report(u string) {
	if e.progress != nil {
		e.progress(u)
	}
}
