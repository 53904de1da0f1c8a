package crawler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sitegraph/internal/filetype"
	"github.com/nao1215/sitegraph/internal/linkgraph"
)

// FailurePolicy decides what happens when a page cannot be fetched.
type FailurePolicy int

const (
	// FailFast cancels the traversal on the first page failure and returns it.
	FailFast FailurePolicy = iota
	// SkipFailed logs the failure and leaves the page unrecorded, so a
	// resumed crawl retries it.
	SkipFailed
)

// ParseFailurePolicy maps the configuration names "fail-fast" and "skip".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "fail-fast":
		return FailFast, nil
	case "skip":
		return SkipFailed, nil
	default:
		return FailFast, fmt.Errorf("unknown failure policy %q", s)
	}
}

func (p FailurePolicy) String() string {
	if p == SkipFailed {
		return "skip"
	}
	return "fail-fast"
}

// CheckpointFunc receives a snapshot of the graph after each recorded page.
// An error aborts the traversal.
type CheckpointFunc func(cp linkgraph.Checkpoint) error

// ProgressFunc is called after each recorded page with the page URL, its
// edge count and the number of pages recorded so far.
type ProgressFunc func(pageURL string, edges, pages int)

// settings holds the options shared by LinkCrawler, Discoverer and Interactor.
type settings struct {
	maxDepth               int
	concurrency            int
	interactionConcurrency int
	wait                   time.Duration
	targetWait             time.Duration
	filter                 LinkFilter
	checkpoint             CheckpointFunc
	policy                 FailurePolicy
	progress               ProgressFunc
	classifier             *filetype.Classifier
	logger                 *slog.Logger
}

// Option configures a crawler.
type Option func(*settings)

// WithMaxDepth limits traversal depth. The root is at depth 1 and 0 means
// unbounded. Negative values are ignored.
func WithMaxDepth(depth int) Option {
	return func(s *settings) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// WithConcurrency sets how many pages are fetched at once.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithInteractionConcurrency sets how many element interactions run at once.
func WithInteractionConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.interactionConcurrency = n
		}
	}
}

// WithWait sets the pause after each navigation before markup is read.
func WithWait(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.wait = d
		}
	}
}

// WithTargetWait sets the pause after a click before the location is read.
func WithTargetWait(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.targetWait = d
		}
	}
}

// WithLinkFilter replaces the filter deciding which links are traversed.
// Filtered links are still recorded as edges.
func WithLinkFilter(f LinkFilter) Option {
	return func(s *settings) {
		s.filter = f
	}
}

// WithCheckpoint sets the checkpoint callback.
func WithCheckpoint(f CheckpointFunc) Option {
	return func(s *settings) {
		s.checkpoint = f
	}
}

// WithFailurePolicy sets the page failure policy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithProgress sets the progress hook.
func WithProgress(f ProgressFunc) Option {
	return func(s *settings) {
		s.progress = f
	}
}

// WithClassifier sets the file classifier used to skip downloads.
func WithClassifier(c *filetype.Classifier) Option {
	return func(s *settings) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newSettings(base settings, opts []Option) settings {
	s := base
	s.classifier = filetype.New(nil)
	s.logger = slog.Default()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
