package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/extract"
	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/nao1215/sitegraph/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewContentCmd creates the content command.
func NewContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content [url...]",
		Short: "Extract the main text of a list of URLs",
		Long: `Content fetches every URL with a plain HTTP GET and extracts the title
and main text. Pages whose text is shorter than the threshold are rendered
again in a headless browser, and their full markup is kept instead.

URLs come from the arguments and from input files given with -i. An input
file may be a link list ({"links": [...]}), a graph or checkpoint written
by links or suburls, or plain text with one URL per line.

Examples:
  # Extract every page of a crawled graph
  sitegraph content -i graph.json -o content.json

  # Only the blog, politely, without a browser
  sitegraph content -i graph.json --prefix https://example.com/blog/ --rate 2 --no-browser -o blog.json`,
		Args: cobra.ArbitraryArgs,
		RunE: runContentCmd,
	}

	cmd.Flags().StringArrayP("input", "i", nil, "URL list, graph or checkpoint file (repeatable)")
	cmd.Flags().StringP("output", "o", "", "Content file")
	cmd.Flags().StringSlice("prefix", nil, "Only extract URLs starting with one of these prefixes")
	cmd.Flags().IntP("concurrency", "n", config.DefaultContentConcurrency, "Plain fetches at once")
	cmd.Flags().Int("browser-concurrency", config.DefaultBrowserConcurrency, "Browser renders at once")
	cmd.Flags().Duration("max-wait", config.DefaultMaxWait, "Maximum wait for a rendered page to become ready")
	cmd.Flags().Int("threshold", config.DefaultThreshold, "Text length below which a page is rendered in the browser")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "HTTP timeout of plain fetches")
	cmd.Flags().Float64("rate", 0, "Maximum plain fetches per second (0 = unlimited)")
	cmd.Flags().Bool("robots", false, "Skip URLs disallowed by robots.txt")
	cmd.Flags().Bool("no-browser", false, "Never render pages in a browser")
	_ = cmd.MarkFlagRequired("output") //nolint:errcheck

	return cmd
}

func runContentCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	inputs, noBrowser, err := applyContentFlags(cmd, cfg)
	if err != nil {
		return err
	}

	e, err := newEnv(cmd, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	fetcher := extract.NewFetcher(
		extract.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		extract.WithUserAgent(cfg.UserAgent),
		extract.WithHeaders(e.headers()),
		extract.WithMaxBodySize(cfg.MaxBodySize),
		extract.WithRateLimit(cfg.RateLimit),
		extract.WithRobots(cfg.RespectRobots),
		extract.WithFetcherLogger(e.logger),
	)

	prog := newProgress(cfg.Quiet, fmt.Sprintf("extracting %d url(s)", len(cfg.Targets)))
	var done atomic.Int64
	opts := []extract.Option{
		extract.WithFetcher(fetcher),
		extract.WithClassifier(e.classifier()),
		extract.WithConcurrency(cfg.ContentConcurrency),
		extract.WithBrowserConcurrency(cfg.BrowserConcurrency),
		extract.WithMaxWait(cfg.MaxWait),
		extract.WithThreshold(cfg.Threshold),
		extract.WithLogger(e.logger),
		extract.WithProgress(func(u string) {
			prog.update("%d/%d  %s", done.Add(1), len(cfg.Targets), shorten(u, 60))
		}),
	}
	if !noBrowser {
		chrome, err := e.startBrowser(ctx)
		if err != nil {
			e.logger.Warn("continuing without browser fallback", "error", err)
		} else {
			defer chrome.Close() //nolint:errcheck
			opts = append(opts, extract.WithBrowser(chrome))
		}
	}

	run := model.NewRun(model.RunContent, contentLabel(inputs, cfg.Targets))
	run.Inputs = cfg.Targets
	step := pipeline.NewContentStep(extract.NewExtractor(opts...), cfg.Output, e.logger)
	runErr := e.newPipeline(step).Execute(ctx, run)
	prog.stop()

	if err := e.writeRuns(run); err != nil {
		e.logger.Error("report failed", "error", err)
	}
	if errors.Is(runErr, context.Canceled) {
		return errors.New("interrupted: content extraction does not checkpoint, rerun to start over")
	}
	return runErr
}

// applyContentFlags copies the content flags into cfg and collects the
// URL list into cfg.Targets. It returns the input files and whether the
// browser fallback is disabled.
func applyContentFlags(cmd *cobra.Command, cfg *config.Config) ([]string, bool, error) {
	flags := cmd.Flags()
	var err error
	if cfg.Output, err = flags.GetString("output"); err != nil {
		return nil, false, err
	}
	if cfg.ContentConcurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, false, err
	}
	if cfg.BrowserConcurrency, err = flags.GetInt("browser-concurrency"); err != nil {
		return nil, false, err
	}
	if cfg.MaxWait, err = flags.GetDuration("max-wait"); err != nil {
		return nil, false, err
	}
	if cfg.Threshold, err = flags.GetInt("threshold"); err != nil {
		return nil, false, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, false, err
	}
	rate, err := flags.GetFloat64("rate")
	if err != nil {
		return nil, false, err
	}
	if rate > 0 || flags.Changed("rate") {
		cfg.RateLimit = rate
	}
	robots, err := flags.GetBool("robots")
	if err != nil {
		return nil, false, err
	}
	cfg.RespectRobots = cfg.RespectRobots || robots
	noBrowser, err := flags.GetBool("no-browser")
	if err != nil {
		return nil, false, err
	}
	prefixes, err := flags.GetStringSlice("prefix")
	if err != nil {
		return nil, false, err
	}
	inputs, err := flags.GetStringArray("input")
	if err != nil {
		return nil, false, err
	}

	urls, err := collectURLs(cfg.Targets, inputs, prefixes)
	if err != nil {
		return nil, false, err
	}
	cfg.Targets = urls
	return inputs, noBrowser, nil
}

// collectURLs merges the argument URLs with the URLs of every input file,
// keeps the ones matching prefixes (all when empty) and drops repeats.
func collectURLs(args, inputs, prefixes []string) ([]string, error) {
	urls := append([]string{}, args...)
	for _, path := range inputs {
		list, err := persist.ReadURLList(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		urls = append(urls, list...)
	}
	if len(prefixes) > 0 {
		urls = linkgraph.FilterPrefix(urls, prefixes)
	}
	return linkgraph.Dedupe(urls), nil
}

// contentLabel names a content run after its first input file, or its
// first URL when there is none.
func contentLabel(inputs, urls []string) string {
	switch {
	case len(inputs) > 0:
		return inputs[0]
	case len(urls) > 0:
		return urls[0]
	default:
		return "content"
	}
}
