package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/sitegraph/internal/crawler"
	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/extract"
	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/nao1215/sitegraph/internal/urlnorm"
)

// LinkGraphStep crawls the link graph rooted at run.Site into a raw
// checkpoint and a cleaned forest.
type LinkGraphStep struct {
	crawler     *crawler.LinkCrawler
	rawPath     string
	cleanedPath string
	policy      RetryPolicy
}

// NewLinkGraphStep creates a step writing the cleaned graph to output and
// the raw checkpoint next to it (see persist.RawPath).
func NewLinkGraphStep(c *crawler.LinkCrawler, output string, policy RetryPolicy) *LinkGraphStep {
	return &LinkGraphStep{
		crawler:     c,
		rawPath:     persist.RawPath(output),
		cleanedPath: output,
		policy:      policy,
	}
}

// Name returns the step name.
func (s *LinkGraphStep) Name() string {
	return "link_graph"
}

// Do executes the crawl, retrying from the checkpoint on failure.
func (s *LinkGraphStep) Do(ctx context.Context, run *model.Run) error {
	root, err := urlnorm.Normalize(run.Site)
	if err != nil {
		return fmt.Errorf("invalid root %q: %w", run.Site, err)
	}
	run.Site = root
	run.Output = s.cleanedPath
	run.RawOutput = s.rawPath

	var raw linkgraph.Graph
	attempts, err := Retry(ctx, s.policy, func(ctx context.Context) error {
		g, err := s.crawler.CrawlSite(ctx, root, s.rawPath, s.cleanedPath)
		if g != nil {
			raw = g
		}
		return err
	})
	run.Attempts += attempts
	summarizeGraph(run, raw)
	if err != nil {
		return fmt.Errorf("link graph crawl of %s: %w", root, err)
	}
	return nil
}

// SubURLStep discovers the sub-URLs of run.Site, simulated clicks
// included, into the artifacts under a directory.
type SubURLStep struct {
	discoverer *crawler.Discoverer
	dir        string
	policy     RetryPolicy
}

// NewSubURLStep creates a step writing artifacts under dir.
func NewSubURLStep(d *crawler.Discoverer, dir string, policy RetryPolicy) *SubURLStep {
	return &SubURLStep{discoverer: d, dir: dir, policy: policy}
}

// Name returns the step name.
func (s *SubURLStep) Name() string {
	return "sub_urls"
}

// Do executes the discovery, retrying from the checkpoint on failure.
func (s *SubURLStep) Do(ctx context.Context, run *model.Run) error {
	site, err := urlnorm.Normalize(run.Site)
	if err != nil {
		return fmt.Errorf("invalid site %q: %w", run.Site, err)
	}
	run.Site = site
	run.RawOutput, run.Output = persist.SubURLPaths(s.dir, site)

	var raw linkgraph.Graph
	attempts, err := Retry(ctx, s.policy, func(ctx context.Context) error {
		g, err := s.discoverer.DiscoverSite(ctx, site, s.dir)
		if g != nil {
			raw = g
		}
		return err
	})
	run.Attempts += attempts
	summarizeGraph(run, raw)
	if err != nil {
		return fmt.Errorf("sub-URL discovery of %s: %w", site, err)
	}
	return nil
}

// summarizeGraph fills the graph counters of run from the raw graph.
// run.Site must be normalized.
func summarizeGraph(run *model.Run, raw linkgraph.Graph) {
	if raw == nil {
		return
	}
	run.RawGraph = raw
	run.Graph = linkgraph.Clean(raw, run.Site)
	run.Depth = linkgraph.Depth(run.Graph, run.Site)
	run.Pages = len(raw)
	run.Edges = raw.Count()
}

// ContentStep extracts the content of run.Inputs and writes the records.
type ContentStep struct {
	extractor *extract.Extractor
	output    string
	logger    *slog.Logger
}

// NewContentStep creates a step writing records to output.
func NewContentStep(e *extract.Extractor, output string, logger *slog.Logger) *ContentStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentStep{extractor: e, output: output, logger: logger}
}

// Name returns the step name.
func (s *ContentStep) Name() string {
	return "content"
}

// Do executes the extraction. Page failures only produce empty records.
func (s *ContentStep) Do(ctx context.Context, run *model.Run) error {
	run.Output = s.output
	run.Attempts++

	records, err := s.extractor.Extract(ctx, run.Inputs)
	stats := s.extractor.Stats()
	run.BrowserFallbacks = stats.BrowserFallbacks
	if err != nil {
		return fmt.Errorf("content extraction: %w", err)
	}
	if stats.FetchFailures > 0 || stats.BrowserFailures > 0 {
		s.logger.Warn("some pages could not be fetched",
			"fetch_failures", stats.FetchFailures,
			"browser_failures", stats.BrowserFailures,
		)
	}

	run.Records = records
	run.RecordCount = len(records)
	if err := persist.WriteContents(s.output, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.output, err)
	}
	return nil
}

// MirrorStep records the run, its edges and its records in the crawl
// history database. Register it with WithFinally so failed and canceled
// runs are recorded too.
type MirrorStep struct {
	db *database.CrawlDB
}

// NewMirrorStep creates a step writing to db.
func NewMirrorStep(db *database.CrawlDB) *MirrorStep {
	return &MirrorStep{db: db}
}

// Name returns the step name.
func (s *MirrorStep) Name() string {
	return "mirror"
}

// Do stores the run.
func (s *MirrorStep) Do(ctx context.Context, run *model.Run) error {
	if run.ID == 0 {
		if err := s.db.StartRun(ctx, run); err != nil {
			return err
		}
	}
	if len(run.RawGraph) > 0 {
		if _, err := s.db.SaveEdges(ctx, run.Site, run.RawGraph); err != nil {
			return err
		}
	}
	if len(run.Records) > 0 {
		if err := s.db.SaveContents(ctx, run.ID, run.Records); err != nil {
			return err
		}
	}
	return s.db.FinishRun(ctx, run)
}
