package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/sitegraph/internal/linkgraph"
)

// fetchFunc returns the outgoing links of one page. It runs while the
// caller holds a page slot.
type fetchFunc func(ctx context.Context, pageURL string) ([]string, error)

// traversal is the concurrent, resumable graph walk shared by both crawlers.
// Every URL is claimed at most once; preloaded pages are not fetched.
type traversal struct {
	settings
	fetch fetchFunc
	pages *semaphore.Weighted

	preloaded linkgraph.Graph

	mu      sync.Mutex
	visited map[string]struct{}
	graph   linkgraph.Graph
	pageCnt int
}

func newTraversal(s settings, preloaded linkgraph.Graph, fetch fetchFunc) *traversal {
	if preloaded == nil {
		preloaded = make(linkgraph.Graph)
	}
	return &traversal{
		settings:  s,
		fetch:     fetch,
		pages:     semaphore.NewWeighted(int64(s.concurrency)),
		preloaded: preloaded,
		visited:   make(map[string]struct{}),
		graph:     preloaded.Clone(),
	}
}

// run walks from root and returns the resulting graph. On error the graph
// holds everything recorded before the failure.
func (t *traversal) run(ctx context.Context, root string) (linkgraph.Graph, error) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return t.visit(egCtx, eg, root, 1)
	})
	err := eg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.graph.Clone(), err
}

func (t *traversal) visit(ctx context.Context, eg *errgroup.Group, pageURL string, depth int) error {
	if t.maxDepth > 0 && depth > t.maxDepth {
		return nil
	}
	if !t.claim(pageURL) {
		return nil
	}

	links, ok := t.preloaded[pageURL]
	if ok {
		t.logger.Debug("reusing recorded page", "url", pageURL, "links", len(links))
	} else {
		var err error
		links, err = t.fetchPage(ctx, pageURL)
		if err != nil {
			if t.policy == SkipFailed && ctx.Err() == nil {
				t.logger.Warn("skipping failed page", "url", pageURL, "error", err)
				return nil
			}
			return err
		}
		if err := t.record(pageURL, links, depth); err != nil {
			return err
		}
	}

	for _, link := range links {
		if t.isVisited(link) || (t.filter != nil && !t.filter(link)) {
			continue
		}
		eg.Go(func() error {
			return t.visit(ctx, eg, link, depth+1)
		})
	}
	return nil
}

func (t *traversal) fetchPage(ctx context.Context, pageURL string) ([]string, error) {
	if err := t.pages.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.pages.Release(1)

	links, err := t.fetch(ctx, pageURL)
	if err != nil {
		var pe *PageError
		if errors.As(err, &pe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, pageError("fetch", pageURL, ErrNavigation, err)
	}
	return linkgraph.Dedupe(links), nil
}

// claim marks pageURL visited and reports whether the caller owns it.
func (t *traversal) claim(pageURL string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.visited[pageURL]; ok {
		return false
	}
	t.visited[pageURL] = struct{}{}
	return true
}

func (t *traversal) isVisited(pageURL string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.visited[pageURL]
	return ok
}

// record stores the page's edges and runs the checkpoint callback with a
// snapshot taken under the same lock, so checkpoints are written one at a
// time and never observe a half-updated graph.
func (t *traversal) record(pageURL string, links []string, depth int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.graph[pageURL] = links
	t.pageCnt++

	if t.checkpoint != nil {
		cp := linkgraph.Checkpoint{Depth: depth, Links: t.graph.Clone()}
		if err := t.checkpoint(cp); err != nil {
			return err
		}
	}
	if t.progress != nil {
		t.progress(pageURL, len(links), t.pageCnt)
	}
	t.logger.Debug("page recorded", slog.String("url", pageURL), slog.Int("links", len(links)), slog.Int("depth", depth))
	return nil
}
