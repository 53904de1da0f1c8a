package crawler

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/sitegraph/internal/browser"
	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/nao1215/sitegraph/internal/urlnorm"
)

// DefaultDiscoverConcurrency is the page concurrency of a Discoverer.
const DefaultDiscoverConcurrency = 3

// Discoverer maps every same-origin URL of a site, including URLs that are
// only reachable by clicking pagination numbers or javascript: anchors.
type Discoverer struct {
	settings
	browser    browser.Factory
	interactor *Interactor
}

// NewDiscoverer returns a Discoverer with unbounded depth and a link
// filter that skips numbered article pages (ExcludeNumericPages).
func NewDiscoverer(b browser.Factory, opts ...Option) *Discoverer {
	s := newSettings(settings{
		maxDepth:               0,
		concurrency:            DefaultDiscoverConcurrency,
		interactionConcurrency: DefaultInteractionConcurrency,
		wait:                   DefaultWait,
		targetWait:             DefaultTargetWait,
		filter:                 ExcludeNumericPages,
	}, opts)
	return &Discoverer{
		settings: s,
		browser:  b,
		interactor: &Interactor{
			settings: s,
			browser:  b,
			slots:    semaphore.NewWeighted(int64(s.interactionConcurrency)),
		},
	}
}

// Discover walks site. Pages present in preloaded are not fetched again.
func (d *Discoverer) Discover(ctx context.Context, site string, preloaded linkgraph.Graph) (linkgraph.Graph, error) {
	start, err := urlnorm.Normalize(site)
	if err != nil {
		return nil, err
	}
	origin, err := urlnorm.Origin(start)
	if err != nil {
		return nil, err
	}
	d.logger.Info("discovering sub urls", "site", start, "concurrency", d.concurrency, "interaction_concurrency", d.interactionConcurrency)

	fetch := func(ctx context.Context, pageURL string) ([]string, error) {
		return d.subURLs(ctx, pageURL, origin)
	}
	return newTraversal(d.settings, preloaded, fetch).run(ctx, start)
}

// subURLs returns the click targets and anchors of pageURL that stay on
// origin: click targets first, then static anchors.
func (d *Discoverer) subURLs(ctx context.Context, pageURL, origin string) ([]string, error) {
	if d.classifier.IsFile(pageURL) {
		d.logger.Debug("not rendering file url", "url", pageURL, "reason", ErrFileResourceSkipped)
		return nil, nil
	}

	markup, err := render(ctx, d.browser, pageURL, d.wait)
	if err != nil {
		return nil, err
	}
	parsed, err := Parse(markup, pageURL)
	if err != nil {
		return nil, pageError("parse", pageURL, ErrNavigation, err)
	}

	candidates := d.interactor.ResolveAll(ctx, parsed.Interactive, pageURL)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates = append(candidates, parsed.Links...)

	links := make([]string, 0, len(candidates))
	for _, link := range candidates {
		if o, err := urlnorm.Origin(link); err == nil && o == origin {
			links = append(links, link)
		}
	}
	return linkgraph.Dedupe(links), nil
}

// DiscoverSite runs a resumable discovery for site with artifacts under
// dir (see persist.SubURLPaths). The existing raw artifact is cleaned into
// the cleaned artifact first, so an interrupted run still leaves a usable
// result. It returns the raw graph.
func (d *Discoverer) DiscoverSite(ctx context.Context, site, dir string) (linkgraph.Graph, error) {
	start, err := urlnorm.Normalize(site)
	if err != nil {
		return nil, err
	}
	rawPath, cleanedPath := persist.SubURLPaths(dir, start)
	rawStore := persist.NewGraphStore(rawPath)
	cleanedStore := persist.NewGraphStore(cleanedPath)

	cp, err := loadCheckpoint(rawStore, d.logger)
	if err != nil {
		return nil, err
	}
	precleaned := linkgraph.Clean(cp.Links, start)
	if err := cleanedStore.Save(linkgraph.Checkpoint{Depth: linkgraph.Depth(precleaned, start), Links: precleaned}); err != nil {
		return nil, err
	}

	discoverer := *d
	discoverer.checkpoint = chainCheckpoint(rawStore.Save, d.checkpoint)
	graph, crawlErr := discoverer.Discover(ctx, start, cp.Links)

	if err := saveResults(rawStore, cleanedStore, graph, start); err != nil {
		return graph, errors.Join(crawlErr, err)
	}
	return graph, crawlErr
}
