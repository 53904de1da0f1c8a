package main

import (
	"errors"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/crawler"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewLinksCmd creates the links command.
func NewLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links <root-url>",
		Short: "Crawl the link graph of a site from a root URL",
		Long: `Links renders every page reachable from the root URL in a headless
browser, up to the maximum depth, and records each page's outgoing links.

Two files are written:
  <output>          the cleaned graph: a forest where every page appears once
  <output>_raw      the raw graph and resume checkpoint, rewritten after every page

Rerunning the command with the same output resumes from the checkpoint.

Examples:
  # Crawl two levels deep
  sitegraph links https://example.com/ -o graph.json

  # Crawl deeper with fewer tabs and keep going past broken pages
  sitegraph links https://example.com/ -o graph.json --depth 4 --concurrency 4 --skip-failed`,
		Args: cobra.ExactArgs(1),
		RunE: runLinksCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Cleaned graph file (the raw checkpoint is written next to it)")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth, "Maximum depth, the root counting as 1 (0 = unbounded)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Pages rendered at once")
	cmd.Flags().Duration("wait", config.DefaultWait, "Settle time after loading a page")
	cmd.Flags().Bool("skip-failed", false, "Leave pages that fail to load unrecorded instead of aborting")
	cmd.Flags().Bool("no-headless", false, "Show the browser window")
	_ = cmd.MarkFlagRequired("output") //nolint:errcheck

	return cmd
}

func runLinksCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := applyCrawlFlags(cmd, cfg, "wait"); err != nil {
		return err
	}
	if cfg.Output, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.Output == "" {
		return errors.New("--output is required")
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

	root := cfg.Targets[0]
	site := cfg.ForSite(root)
	policy, err := crawler.ParseFailurePolicy(site.FailurePolicy)
	if err != nil {
		return err
	}

	prog := newProgress(cfg.Quiet, "crawling "+root)
	c := crawler.NewLinkCrawler(chrome,
		crawler.WithMaxDepth(site.MaxDepth),
		crawler.WithConcurrency(site.Concurrency),
		crawler.WithWait(site.Wait),
		crawler.WithFailurePolicy(policy),
		crawler.WithLinkFilter(e.linkFilter(root)),
		crawler.WithClassifier(e.classifier()),
		crawler.WithProgress(prog.crawl),
		crawler.WithLogger(e.logger),
	)

	run := model.NewRun(model.RunLinks, root)
	runErr := e.newPipeline(pipeline.NewLinkGraphStep(c, cfg.Output, e.retryPolicy())).Execute(ctx, run)
	prog.stop()

	if err := e.writeRuns(run); err != nil {
		e.logger.Error("report failed", "error", err)
	}
	return runError(runErr)
}

// applyCrawlFlags copies the browser crawl flags shared by links and
// suburls into cfg. waitFlag names the settle time flag.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config, waitFlag string) error {
	flags := cmd.Flags()
	var err error
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return err
	}
	if cfg.Wait, err = flags.GetDuration(waitFlag); err != nil {
		return err
	}
	skip, err := flags.GetBool("skip-failed")
	if err != nil {
		return err
	}
	if skip {
		cfg.FailurePolicy = config.SkipFailed
	}
	noHeadless, err := flags.GetBool("no-headless")
	if err != nil {
		return err
	}
	cfg.Headless = !noHeadless
	return nil
}
