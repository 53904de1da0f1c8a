package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitegraph"

	// DefaultMaxDepth bounds link-graph crawls. Each extra level multiplies
	// the number of rendered pages, so two levels is the practical default.
	DefaultMaxDepth = 2

	// DefaultSubURLMaxDepth leaves sub-URL discovery unbounded; the
	// same-host filter and the link filter keep it finite.
	DefaultSubURLMaxDepth = 0

	// DefaultConcurrency is the page pool size of link-graph crawls.
	DefaultConcurrency = 10

	// DefaultSubURLConcurrency is the page pool size of sub-URL discovery.
	DefaultSubURLConcurrency = 3

	// DefaultInteractionConcurrency is the simulated-click pool size.
	DefaultInteractionConcurrency = 5

	// DefaultWait is the settle time after rendering a page.
	DefaultWait = 2 * time.Second

	// DefaultTargetWait is the settle time after a simulated click.
	DefaultTargetWait = 2 * time.Second

	// DefaultContentConcurrency is the plain-fetch pool size.
	DefaultContentConcurrency = 10

	// DefaultBrowserConcurrency is the browser fallback pool size.
	DefaultBrowserConcurrency = 3

	// DefaultMaxWait bounds the wait for document.readyState in the
	// browser fallback.
	DefaultMaxWait = 10 * time.Second

	// DefaultThreshold is the body length, in characters, below which a
	// plain-fetch record is re-fetched through the browser.
	DefaultThreshold = 400

	// DefaultTimeout is the HTTP timeout of plain fetches.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies sitegraph in HTTP requests.
	DefaultUserAgent = "sitegraph/1.0 (+https://github.com/nao1215/sitegraph)"

	// DefaultMaxBodySize limits the response body read by plain fetches.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultRetries is the number of attempts for a whole-site operation.
	DefaultRetries = 3

	// DefaultRetryBackoff is the delay before the second attempt; it
	// doubles for each further attempt up to DefaultMaxRetryBackoff.
	DefaultRetryBackoff = 1 * time.Second

	// DefaultMaxRetryBackoff caps the delay between attempts.
	DefaultMaxRetryBackoff = 30 * time.Second

	// DefaultBatchSize is the number of sites processed concurrently.
	DefaultBatchSize = 2

	// DefaultOutputDir is where sub-URL checkpoints are written.
	DefaultOutputDir = "."
)

// Failure policies for page-level navigation errors.
const (
	// FailFast cancels the traversal on the first page that fails to load.
	FailFast = "fail-fast"

	// SkipFailed logs the failure and leaves the page unrecorded so a
	// resumed run tries it again.
	SkipFailed = "skip"
)

// Report formats.
const (
	ReportText     = "text"
	ReportJSON     = "json"
	ReportMarkdown = "markdown"
)

// Config holds all configuration options for sitegraph. It is built from
// CLI flags and the optional configuration file and passed down
// explicitly; no package keeps global configuration state.
type Config struct {
	// MaxDepth is the maximum crawl depth, counting the root as depth 1.
	// Zero means unbounded.
	MaxDepth int

	// Concurrency is the number of pages rendered at once.
	Concurrency int

	// InteractionConcurrency is the number of simulated clicks at once.
	// Only used by sub-URL discovery.
	InteractionConcurrency int

	// Wait is the settle time after navigating to a page.
	Wait time.Duration

	// TargetWait is the settle time after a simulated click.
	TargetWait time.Duration

	// FailurePolicy is FailFast or SkipFailed.
	FailurePolicy string

	// ContentConcurrency is the plain-fetch pool size.
	ContentConcurrency int

	// BrowserConcurrency is the browser fallback pool size.
	BrowserConcurrency int

	// MaxWait bounds the wait for a rendered document to become ready.
	MaxWait time.Duration

	// Threshold is the body length below which a record is re-fetched
	// through the browser.
	Threshold int

	// Timeout is the HTTP timeout of plain fetches.
	Timeout time.Duration

	// UserAgent is sent with plain fetches and by the browser.
	UserAgent string

	// MaxBodySize limits the response body read by plain fetches.
	MaxBodySize int64

	// RateLimit is the maximum number of plain fetches per second.
	// Zero disables rate limiting.
	RateLimit float64

	// RespectRobots skips plain fetches disallowed by robots.txt.
	RespectRobots bool

	// FileSuffixes are the extensions never fetched or rendered.
	// Empty selects the built-in list.
	FileSuffixes []string

	// Headless runs the browser without a window.
	Headless bool

	// BrowserPath is the browser executable. Empty lets chromedp find one.
	BrowserPath string

	// BrowserProfile is a persistent browser profile directory. Empty
	// gives every run a temporary profile.
	BrowserProfile string

	// Retries is the number of attempts of a whole-site operation.
	Retries int

	// RetryBackoff is the delay before the second attempt.
	RetryBackoff time.Duration

	// MaxRetryBackoff caps the delay between attempts.
	MaxRetryBackoff time.Duration

	// BatchSize is the number of sites processed concurrently.
	BatchSize int

	// OutputDir is the directory for sub-URL checkpoints.
	OutputDir string

	// Output is the result file of a link-graph crawl or content run.
	Output string

	// Targets are the root URLs, site URLs or content URLs to process.
	Targets []string

	// Verbose enables debug logging.
	Verbose bool

	// Quiet disables the progress spinner.
	Quiet bool

	// ReportFormat is one of ReportText, ReportJSON, ReportMarkdown.
	ReportFormat string

	// ReportFile receives the run report instead of stdout when set.
	ReportFile string

	// DBDir is the directory of the crawl history database.
	DBDir string

	// SaveToDB mirrors runs into the crawl history database.
	SaveToDB bool

	// ConfigFilePath is the path given with --config.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values for a link-graph crawl.
func NewConfig() *Config {
	return &Config{
		MaxDepth:               DefaultMaxDepth,
		Concurrency:            DefaultConcurrency,
		InteractionConcurrency: DefaultInteractionConcurrency,
		Wait:                   DefaultWait,
		TargetWait:             DefaultTargetWait,
		FailurePolicy:          FailFast,
		ContentConcurrency:     DefaultContentConcurrency,
		BrowserConcurrency:     DefaultBrowserConcurrency,
		MaxWait:                DefaultMaxWait,
		Threshold:              DefaultThreshold,
		Timeout:                DefaultTimeout,
		UserAgent:              DefaultUserAgent,
		MaxBodySize:            DefaultMaxBodySize,
		Headless:               true,
		Retries:                DefaultRetries,
		RetryBackoff:           DefaultRetryBackoff,
		MaxRetryBackoff:        DefaultMaxRetryBackoff,
		BatchSize:              DefaultBatchSize,
		OutputDir:              DefaultOutputDir,
		ReportFormat:           ReportText,
		DBDir:                  XDGDataDir(),
		SaveToDB:               true,
		SiteConfigs:            &File{Sites: make(map[string]SiteConfig)},
	}
}

// XDGDataDir returns the XDG data directory for sitegraph.
// On Linux: ~/.local/share/sitegraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitegraph.
// On Linux: ~/.config/sitegraph
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for sitegraph. The browser
// profile directories live below it.
// On Linux: ~/.cache/sitegraph
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ApplyFile copies the global settings of the configuration file into c.
// Values already set from flags win over the file only when the file
// leaves them empty.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f
	if len(f.FileSuffixes) > 0 {
		c.FileSuffixes = f.FileSuffixes
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.RateLimit > 0 {
		c.RateLimit = f.RateLimit
	}
	if f.RespectRobots {
		c.RespectRobots = true
	}
	if f.BrowserPath != "" {
		c.BrowserPath = f.BrowserPath
	}
	if f.BrowserProfile != "" {
		c.BrowserProfile = f.BrowserProfile
	}
}

// ForSite returns a copy of c with the overrides of the site containing
// rawURL applied.
func (c *Config) ForSite(rawURL string) *Config {
	out := *c
	if c.SiteConfigs == nil {
		return &out
	}
	sc := c.SiteConfigs.GetSiteConfigForURL(rawURL)
	if sc.Depth != 0 {
		out.MaxDepth = sc.Depth
	}
	if sc.Concurrency > 0 {
		out.Concurrency = sc.Concurrency
	}
	if sc.InteractionConcurrency > 0 {
		out.InteractionConcurrency = sc.InteractionConcurrency
	}
	if sc.Wait > 0 {
		out.Wait = sc.Wait
	}
	if sc.TargetWait > 0 {
		out.TargetWait = sc.TargetWait
	}
	return &out
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.Concurrency <= 0 || c.InteractionConcurrency <= 0 ||
		c.ContentConcurrency <= 0 || c.BrowserConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Wait < 0 || c.TargetWait < 0 || c.MaxWait < 0 {
		return ErrInvalidWait
	}
	if c.Threshold < 0 {
		return ErrInvalidThreshold
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.Retries <= 0 {
		return ErrInvalidRetries
	}
	if c.RetryBackoff < 0 || c.MaxRetryBackoff < 0 {
		return ErrInvalidRetries
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	switch c.FailurePolicy {
	case FailFast, SkipFailed:
	default:
		return ErrInvalidFailurePolicy
	}
	switch c.ReportFormat {
	case ReportText, ReportJSON, ReportMarkdown:
	default:
		return ErrInvalidReportFormat
	}
	return nil
}
