package config

import (
	"net/url"
	"strings"
	"time"
)

// SiteConfig holds crawl overrides for one host.
type SiteConfig struct {
	// Headers are extra HTTP headers sent with plain fetches to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the maximum crawl depth. Zero keeps the global value.
	Depth int `yaml:"depth,omitempty"`

	// Concurrency overrides the page pool size.
	Concurrency int `yaml:"concurrency,omitempty"`

	// InteractionConcurrency overrides the simulated-click pool size.
	InteractionConcurrency int `yaml:"interactionConcurrency,omitempty"`

	// Wait overrides the settle time after navigation, e.g. "3s".
	Wait time.Duration `yaml:"wait,omitempty"`

	// TargetWait overrides the settle time after a simulated click.
	TargetWait time.Duration `yaml:"targetWait,omitempty"`

	// IgnorePatterns are URL path globs never traversed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns, when set, restrict traversal to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .sitegraph configuration file.
type File struct {
	// Sites maps host names (e.g. "www.example.com") to overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// FileSuffixes replaces the built-in list of skipped extensions.
	FileSuffixes []string `yaml:"fileSuffixes,omitempty"`

	// UserAgent replaces the default User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// RateLimit is the maximum number of plain fetches per second.
	RateLimit float64 `yaml:"rateLimit,omitempty"`

	// RespectRobots enables the robots.txt check of plain fetches.
	RespectRobots bool `yaml:"respectRobots,omitempty"`

	// BrowserPath is the browser executable.
	BrowserPath string `yaml:"browserPath,omitempty"`

	// BrowserProfile is a persistent profile directory shared by all runs.
	// Only one sitegraph process can use it at a time.
	BrowserProfile string `yaml:"browserProfile,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	siteConfig, ok := cf.Sites[strings.ToLower(host)]
	if !ok {
		siteConfig, ok = cf.Sites[host]
	}
	if !ok {
		return result
	}

	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.Concurrency != 0 {
		result.Concurrency = siteConfig.Concurrency
	}
	if siteConfig.InteractionConcurrency != 0 {
		result.InteractionConcurrency = siteConfig.InteractionConcurrency
	}
	if siteConfig.Wait != 0 {
		result.Wait = siteConfig.Wait
	}
	if siteConfig.TargetWait != 0 {
		result.TargetWait = siteConfig.TargetWait
	}
	if len(siteConfig.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(siteConfig.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range siteConfig.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}

// GetSiteConfigForURL is GetSiteConfig keyed by the host of rawURL.
func (cf *File) GetSiteConfigForURL(rawURL string) SiteConfig {
	u, err := url.Parse(rawURL)
	if err != nil {
		return cf.Defaults
	}
	return cf.GetSiteConfig(u.Hostname())
}
