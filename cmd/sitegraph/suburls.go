package main

import (
	"fmt"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/crawler"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/nao1215/sitegraph/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewSubURLsCmd creates the suburls command.
func NewSubURLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suburls <site-url>...",
		Short: "Discover every URL below a site, including click-only links",
		Long: `Suburls discovers the pages of a site that share its origin. Besides
plain links it clicks numeric pagination elements and javascript: anchors
and records where they navigate.

For each site two files are written under <dir>/` + persist.SubURLDir + `/:
  <site-key>.json       the cleaned graph
  <site-key>_raw.json   the raw graph and resume checkpoint

Pages ending in /<digits>.html are recorded but not traversed.

Examples:
  # Discover one site
  sitegraph suburls https://example.com/docs/ -d out

  # Several sites, two at a time, with slower pages
  sitegraph suburls https://a.example/ https://b.example/ -d out --batch 2 --base-wait 5s`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSubURLsCmd,
	}

	cmd.Flags().StringP("dir", "d", config.DefaultOutputDir, "Output directory")
	cmd.Flags().Int("depth", config.DefaultSubURLMaxDepth, "Maximum depth, the site counting as 1 (0 = unbounded)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultSubURLConcurrency, "Pages rendered at once per site")
	cmd.Flags().Int("sub-concurrency", config.DefaultInteractionConcurrency, "Simulated clicks at once per site")
	cmd.Flags().Duration("base-wait", config.DefaultWait, "Settle time after loading a page")
	cmd.Flags().Duration("target-wait", config.DefaultTargetWait, "Settle time after a simulated click")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Sites processed at once")
	cmd.Flags().Bool("skip-failed", false, "Leave pages that fail to load unrecorded instead of aborting")
	cmd.Flags().Bool("no-headless", false, "Show the browser window")

	return cmd
}

func runSubURLsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := applyCrawlFlags(cmd, cfg, "base-wait"); err != nil {
		return err
	}
	flags := cmd.Flags()
	if cfg.OutputDir, err = flags.GetString("dir"); err != nil {
		return err
	}
	if cfg.InteractionConcurrency, err = flags.GetInt("sub-concurrency"); err != nil {
		return err
	}
	if cfg.TargetWait, err = flags.GetDuration("target-wait"); err != nil {
		return err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return err
	}

	e, err := newEnv(cmd, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	chrome, err := e.startBrowser(ctx)
	if err != nil {
		return err
	}
	defer chrome.Close() //nolint:errcheck

	prog := newProgress(cfg.Quiet, fmt.Sprintf("discovering %d site(s)", len(cfg.Targets)))
	factory := func(site string) *pipeline.Pipeline {
		sc := cfg.ForSite(site)
		policy, err := crawler.ParseFailurePolicy(sc.FailurePolicy)
		if err != nil {
			policy = crawler.FailFast
		}
		d := crawler.NewDiscoverer(chrome,
			crawler.WithMaxDepth(sc.MaxDepth),
			crawler.WithConcurrency(sc.Concurrency),
			crawler.WithInteractionConcurrency(sc.InteractionConcurrency),
			crawler.WithWait(sc.Wait),
			crawler.WithTargetWait(sc.TargetWait),
			crawler.WithFailurePolicy(policy),
			crawler.WithLinkFilter(crawler.AllOf(crawler.ExcludeNumericPages, e.linkFilter(site))),
			crawler.WithClassifier(e.classifier()),
			crawler.WithProgress(prog.crawl),
			crawler.WithLogger(e.logger.With("site", site)),
		)
		return e.newPipeline(pipeline.NewSubURLStep(d, cfg.OutputDir, e.retryPolicy()))
	}

	bp := pipeline.NewBatchProcessor(model.RunSubURLs, factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(e.logger),
	)
	runs, batchErr := bp.ProcessBatch(ctx, cfg.Targets)
	prog.stop()

	if err := e.writeRuns(runs...); err != nil {
		e.logger.Error("report failed", "error", err)
	}
	if batchErr != nil {
		return runError(batchErr)
	}
	return failedRuns(runs)
}

// failedRuns returns an error naming the sites whose run failed.
func failedRuns(runs []*model.Run) error {
	var failed []string
	for _, r := range runs {
		if r != nil && r.Status() != model.StatusOK {
			failed = append(failed, r.Site)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d site(s) failed: %v", len(failed), len(runs), failed)
}
