package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sitegraph/internal/browser"
	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/nao1215/sitegraph/internal/urlnorm"
)

// Defaults for LinkCrawler.
const (
	DefaultMaxDepth    = 2
	DefaultConcurrency = 10
	DefaultWait        = 2 * time.Second
)

// LinkCrawler records the anchors of every page reachable from a root.
type LinkCrawler struct {
	settings
	browser browser.Factory
}

// NewLinkCrawler returns a LinkCrawler that renders pages with b.
func NewLinkCrawler(b browser.Factory, opts ...Option) *LinkCrawler {
	return &LinkCrawler{
		settings: newSettings(settings{
			maxDepth:               DefaultMaxDepth,
			concurrency:            DefaultConcurrency,
			interactionConcurrency: DefaultInteractionConcurrency,
			wait:                   DefaultWait,
			targetWait:             DefaultTargetWait,
		}, opts),
		browser: b,
	}
}

// Crawl walks the site from root. Pages present in preloaded are not
// fetched again; their recorded links are followed.
func (c *LinkCrawler) Crawl(ctx context.Context, root string, preloaded linkgraph.Graph) (linkgraph.Graph, error) {
	start, err := urlnorm.Normalize(root)
	if err != nil {
		return nil, err
	}
	c.logger.Info("crawling links", "root", start, "max_depth", c.maxDepth, "concurrency", c.concurrency)
	return newTraversal(c.settings, preloaded, c.links).run(ctx, start)
}

// links renders one page and returns its http(s) anchors.
func (c *LinkCrawler) links(ctx context.Context, pageURL string) ([]string, error) {
	markup, err := render(ctx, c.browser, pageURL, c.wait)
	if err != nil {
		return nil, err
	}
	parsed, err := Parse(markup, pageURL)
	if err != nil {
		return nil, pageError("parse", pageURL, ErrNavigation, err)
	}
	return parsed.Links, nil
}

// CrawlSite runs a resumable crawl backed by two files. The raw checkpoint
// at rawPath is loaded, extended and rewritten after every page. The final
// graph is cleaned into a forest rooted at root and saved to cleanedPath.
// It returns the raw graph.
func (c *LinkCrawler) CrawlSite(ctx context.Context, root, rawPath, cleanedPath string) (linkgraph.Graph, error) {
	start, err := urlnorm.Normalize(root)
	if err != nil {
		return nil, err
	}

	rawStore := persist.NewGraphStore(rawPath)
	cp, err := loadCheckpoint(rawStore, c.logger)
	if err != nil {
		return nil, err
	}

	crawler := *c
	crawler.checkpoint = chainCheckpoint(rawStore.Save, c.checkpoint)
	graph, crawlErr := crawler.Crawl(ctx, start, cp.Links)

	if err := saveResults(rawStore, persist.NewGraphStore(cleanedPath), graph, start); err != nil {
		return graph, errors.Join(crawlErr, err)
	}
	return graph, crawlErr
}

// render opens a session, loads pageURL, waits and returns the markup.
// The session is always closed.
func render(ctx context.Context, b browser.Factory, pageURL string, wait time.Duration) (string, error) {
	session, err := b.NewSession(ctx)
	if err != nil {
		return "", pageError("open session", pageURL, ErrNavigation, err)
	}
	defer session.Close() //nolint:errcheck

	if err := session.Navigate(pageURL); err != nil {
		return "", pageError("navigate", pageURL, ErrNavigation, err)
	}
	if err := session.Wait(wait); err != nil {
		return "", pageError("wait", pageURL, ErrNavigation, err)
	}
	markup, err := session.HTML()
	if err != nil {
		return "", pageError("read", pageURL, ErrNavigation, err)
	}
	return markup, nil
}

// loadCheckpoint loads a checkpoint, treating a corrupt file as empty.
func loadCheckpoint(store *persist.GraphStore, logger *slog.Logger) (linkgraph.Checkpoint, error) {
	cp, err := store.Load()
	if errors.Is(err, persist.ErrCorruptCheckpoint) {
		logger.Warn("ignoring unreadable checkpoint", "path", store.Path(), "error", err)
		return linkgraph.NewCheckpoint(), nil
	}
	if err != nil {
		return cp, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

// saveResults writes the raw graph and its cleaned forest.
func saveResults(rawStore, cleanedStore *persist.GraphStore, graph linkgraph.Graph, root string) error {
	if graph == nil {
		return nil
	}
	depth := 1
	if cp, err := rawStore.Load(); err == nil {
		depth = cp.Depth
	}
	if err := rawStore.Save(linkgraph.Checkpoint{Depth: depth, Links: graph}); err != nil {
		return err
	}
	cleaned := linkgraph.Clean(graph, root)
	return cleanedStore.Save(linkgraph.Checkpoint{Depth: linkgraph.Depth(cleaned, root), Links: cleaned})
}

func chainCheckpoint(funcs ...CheckpointFunc) CheckpointFunc {
	return func(cp linkgraph.Checkpoint) error {
		for _, f := range funcs {
			if f == nil {
				continue
			}
			if err := f(cp); err != nil {
				return err
			}
		}
		return nil
	}
}
