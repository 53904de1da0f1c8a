package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/nao1215/sitegraph/internal/browser"
	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/crawler"
	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/extract"
	"github.com/nao1215/sitegraph/internal/filetype"
	"github.com/nao1215/sitegraph/internal/log"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/pipeline"
	"github.com/nao1215/sitegraph/internal/report"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig builds a Config from the global flags and the configuration
// file. Command-specific flags are applied by the caller.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.Verbose = getVerboseFlag(cmd)
	if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.ReportFormat, err = flags.GetString("report"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.Retries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}

	// An explicit --config must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.Targets = args
	return cfg, nil
}

// env holds what every crawl command shares: configuration, logger and
// the optional history database.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.CrawlDB
	stdout io.Writer
}

// newEnv validates cfg, sets up logging and opens the history database.
func newEnv(cmd *cobra.Command, cfg *config.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	e := &env{cfg: cfg, logger: logger, stdout: cmd.OutOrStdout()}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		e.db = db
		logger.Debug("database opened", "path", db.Path())
	}
	return e, nil
}

// Close releases the database.
func (e *env) Close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Error("failed to close database", "error", err)
		}
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startBrowser launches the shared headless browser.
func (e *env) startBrowser(ctx context.Context) (*browser.Chrome, error) {
	chrome, err := browser.NewChrome(ctx,
		browser.WithHeadless(e.cfg.Headless),
		browser.WithUserAgent(e.cfg.UserAgent),
		browser.WithExecPath(e.cfg.BrowserPath),
		browser.WithUserDataDir(e.cfg.BrowserProfile),
		browser.WithLogger(e.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("%w (install Chrome or Chromium, or set browserPath in the config file)", err)
	}
	return chrome, nil
}

// classifier returns the file classifier configured in cfg.
func (e *env) classifier() *filetype.Classifier {
	return filetype.New(e.cfg.FileSuffixes)
}

// retryPolicy returns the whole-site retry policy configured in cfg.
func (e *env) retryPolicy() pipeline.RetryPolicy {
	return pipeline.RetryPolicyFromConfig(e.cfg, e.logger)
}

// linkFilter builds the traversal filter of the site containing rawURL
// from its ignore and follow patterns. It returns nil when none are set.
func (e *env) linkFilter(rawURL string) crawler.LinkFilter {
	if e.cfg.SiteConfigs == nil {
		return nil
	}
	sc := e.cfg.SiteConfigs.GetSiteConfigForURL(rawURL)
	return crawler.PatternFilter(sc.IgnorePatterns, sc.FollowPatterns)
}

// headers returns the per-site request headers of plain fetches.
func (e *env) headers() extract.HeaderFunc {
	files := e.cfg.SiteConfigs
	if files == nil {
		return nil
	}
	return func(rawURL string) map[string]string {
		return files.GetSiteConfigForURL(rawURL).Headers
	}
}

// newPipeline creates a pipeline of steps, mirrored to the history
// database when one is open.
func (e *env) newPipeline(steps ...pipeline.Step) *pipeline.Pipeline {
	var opts []pipeline.Option
	opts = append(opts, pipeline.WithLogger(e.logger))
	if e.db != nil {
		opts = append(opts, pipeline.WithFinally(pipeline.NewMirrorStep(e.db)))
	}
	p := pipeline.New(opts...)
	p.AddSteps(steps...)
	return p
}

// writeRuns writes the run reports in the configured format.
func (e *env) writeRuns(runs ...*model.Run) (err error) {
	out := e.stdout
	if e.cfg.ReportFile != "" {
		f, err := createReportFile(e.cfg.ReportFile)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}

	w, err := report.New(e.cfg.ReportFormat, out)
	if err != nil {
		return err
	}
	for _, run := range runs {
		if run == nil {
			continue
		}
		if _, err := w.Write(run); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

// createReportFile creates path and its parent directories. Reports may
// contain request headers, so the file is only readable by the owner.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// runError returns the error to exit with: cancellation is reported as
// an interruption with the resume hint.
func runError(err error) error {
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted: rerun the same command to resume from the checkpoint")
	}
	return err
}

// progress shows a spinner on stderr. The zero value is silent.
type progress struct {
	s *spinner.Spinner
}

func newProgress(quiet bool, label string) *progress {
	if quiet {
		return &progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + label
	s.Start()
	return &progress{s: s}
}

func (p *progress) update(format string, args ...any) {
	if p.s == nil {
		return
	}
	p.s.Lock()
	p.s.Suffix = " " + fmt.Sprintf(format, args...)
	p.s.Unlock()
}

// crawl is a crawler.ProgressFunc.
func (p *progress) crawl(pageURL string, edges, pages int) {
	p.update("%d pages  %s (%d links)", pages, shorten(pageURL, 60), edges)
}

func (p *progress) stop() {
	if p.s != nil {
		p.s.Stop()
	}
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n+3:])
}
