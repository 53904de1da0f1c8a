package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig documents the defaults; a failing case means a default
// changed.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	checks := []struct {
		name string
		ok   bool
	}{
		{"MaxDepth is 2", cfg.MaxDepth == 2},
		{"Concurrency is 10", cfg.Concurrency == 10},
		{"InteractionConcurrency is 5", cfg.InteractionConcurrency == 5},
		{"Wait is 2s", cfg.Wait == 2*time.Second},
		{"TargetWait is 2s", cfg.TargetWait == 2*time.Second},
		{"FailurePolicy is fail-fast", cfg.FailurePolicy == FailFast},
		{"ContentConcurrency is 10", cfg.ContentConcurrency == 10},
		{"BrowserConcurrency is 3", cfg.BrowserConcurrency == 3},
		{"MaxWait is 10s", cfg.MaxWait == 10*time.Second},
		{"Threshold is 400", cfg.Threshold == 400},
		{"Headless is true", cfg.Headless},
		{"Retries is 3", cfg.Retries == 3},
		{"ReportFormat is text", cfg.ReportFormat == ReportText},
		{"SaveToDB is true", cfg.SaveToDB},
		{"DBDir is the XDG data dir", cfg.DBDir == XDGDataDir()},
		{"SiteConfigs is initialized", cfg.SiteConfigs != nil && cfg.SiteConfigs.Sites != nil},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			if !c.ok {
				t.Errorf("default check failed: %s", c.name)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "valid", modify: func(*Config) {}, want: nil},
		{name: "no target", modify: func(c *Config) { c.Targets = nil }, want: ErrNoTarget},
		{name: "negative depth", modify: func(c *Config) { c.MaxDepth = -1 }, want: ErrInvalidDepth},
		{name: "unbounded depth", modify: func(c *Config) { c.MaxDepth = 0 }, want: nil},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "zero interaction concurrency", modify: func(c *Config) { c.InteractionConcurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "zero browser concurrency", modify: func(c *Config) { c.BrowserConcurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "negative wait", modify: func(c *Config) { c.Wait = -time.Second }, want: ErrInvalidWait},
		{name: "zero wait", modify: func(c *Config) { c.Wait = 0 }, want: nil},
		{name: "negative threshold", modify: func(c *Config) { c.Threshold = -1 }, want: ErrInvalidThreshold},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{name: "negative rate", modify: func(c *Config) { c.RateLimit = -1 }, want: ErrInvalidRateLimit},
		{name: "zero retries", modify: func(c *Config) { c.Retries = 0 }, want: ErrInvalidRetries},
		{name: "zero batch", modify: func(c *Config) { c.BatchSize = 0 }, want: ErrInvalidBatchSize},
		{name: "unknown policy", modify: func(c *Config) { c.FailurePolicy = "ignore" }, want: ErrInvalidFailurePolicy},
		{name: "skip policy", modify: func(c *Config) { c.FailurePolicy = SkipFailed }, want: nil},
		{name: "unknown report", modify: func(c *Config) { c.ReportFormat = "html" }, want: ErrInvalidReportFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.Targets = []string{"https://example.com/"}
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Depth:          3,
			Headers:        map[string]string{"Accept-Language": "en"},
			IgnorePatterns: []string{"/logout*"},
		},
		Sites: map[string]SiteConfig{
			"www.example.com": {
				Depth:          5,
				Wait:           3 * time.Second,
				Headers:        map[string]string{"X-Test": "1"},
				FollowPatterns: []string{"/docs/*"},
			},
		},
	}

	t.Run("unknown site gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("other.com")
		if sc.Depth != 3 || len(sc.IgnorePatterns) != 1 {
			t.Errorf("unexpected site config: %+v", sc)
		}
	})

	t.Run("known site overrides", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("WWW.Example.com")
		if sc.Depth != 5 {
			t.Errorf("expected depth 5, got %d", sc.Depth)
		}
		if sc.Wait != 3*time.Second {
			t.Errorf("expected wait 3s, got %v", sc.Wait)
		}
		if sc.Headers["Accept-Language"] != "en" || sc.Headers["X-Test"] != "1" {
			t.Errorf("expected merged headers, got %v", sc.Headers)
		}
		if len(sc.FollowPatterns) != 1 || len(sc.IgnorePatterns) != 1 {
			t.Errorf("unexpected patterns: %+v", sc)
		}
	})

	t.Run("defaults are not modified by merging", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetSiteConfig("www.example.com")
		if _, ok := cf.Defaults.Headers["X-Test"]; ok {
			t.Error("defaults headers were modified")
		}
	})

	t.Run("lookup by URL", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfigForURL("https://www.example.com:8443/docs/")
		if sc.Depth != 5 {
			t.Errorf("expected depth 5, got %d", sc.Depth)
		}
	})
}

func TestConfigForSite(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.SiteConfigs = &File{
		Sites: map[string]SiteConfig{
			"a.com": {Depth: 4, Concurrency: 2, InteractionConcurrency: 1, TargetWait: time.Second},
		},
	}

	site := cfg.ForSite("http://a.com/x")
	if site.MaxDepth != 4 || site.Concurrency != 2 || site.InteractionConcurrency != 1 || site.TargetWait != time.Second {
		t.Errorf("overrides not applied: %+v", site)
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Error("ForSite must not modify the receiver")
	}

	other := cfg.ForSite("http://b.com/")
	if other.MaxDepth != DefaultMaxDepth {
		t.Errorf("unexpected depth for unknown site: %d", other.MaxDepth)
	}
}

func TestApplyFile(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.BrowserProfile != "" {
		t.Errorf("expected a temporary browser profile by default, got %q", cfg.BrowserProfile)
	}
	cfg.ApplyFile(&File{
		FileSuffixes:   []string{"xml"},
		UserAgent:      "custom",
		RateLimit:      2,
		RespectRobots:  true,
		BrowserPath:    "/usr/bin/chromium",
		BrowserProfile: "/tmp/profile",
	})

	if len(cfg.FileSuffixes) != 1 || cfg.UserAgent != "custom" || cfg.RateLimit != 2 ||
		!cfg.RespectRobots || cfg.BrowserPath != "/usr/bin/chromium" || cfg.BrowserProfile != "/tmp/profile" {
		t.Errorf("file settings not applied: %+v", cfg)
	}

	cfg.ApplyFile(nil)
	if cfg.UserAgent != "custom" {
		t.Error("nil file must be ignored")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.sitegraph")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sitegraph")
		content := `fileSuffixes: [pdf, zip]
rateLimit: 1.5
respectRobots: true
defaults:
  depth: 2
  wait: 3s
sites:
  WWW.Example.com:
    depth: 4
    targetWait: 1500ms
    headers:
      Accept-Language: "zh-CN"
    ignorePatterns:
      - "/admin/*"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cf.FileSuffixes) != 2 || cf.RateLimit != 1.5 || !cf.RespectRobots {
			t.Errorf("unexpected globals: %+v", cf)
		}
		if cf.Defaults.Wait != 3*time.Second {
			t.Errorf("expected default wait 3s, got %v", cf.Defaults.Wait)
		}

		site, ok := cf.Sites["www.example.com"]
		if !ok {
			t.Fatal("expected lowercased host key")
		}
		if site.Depth != 4 || site.TargetWait != 1500*time.Millisecond {
			t.Errorf("unexpected site config: %+v", site)
		}
		if site.Headers["Accept-Language"] != "zh-CN" {
			t.Error("expected Accept-Language header")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sitegraph")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if err == nil || !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sitegraph")
		if err := os.WriteFile(configPath, []byte("defaults:\n  depth: 1\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("XDG %s dir %q does not end with %q", name, dir, AppName)
		}
	}
}

func TestLoadConfigFileRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown key", content: "defaults:\n  dpeth: 3\n", want: "failed to parse"},
		{name: "bad pattern", content: "sites:\n  example.com:\n    ignorePatterns: [\"/a[\"]\n", want: "sites.example.com"},
		{name: "negative depth", content: "defaults:\n  depth: -1\n", want: "defaults"},
		{name: "negative rate", content: "rateLimit: -2\n", want: "rateLimit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), ".sitegraph")
			if err := os.WriteFile(configPath, []byte(tt.content), 0600); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			_, err := LoadConfigFile(configPath)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	t.Run("comments only", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sitegraph")
		if err := os.WriteFile(configPath, []byte("# nothing yet\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths()
	if len(paths) == 0 {
		t.Fatal("expected search paths")
	}
	if last := paths[len(paths)-1]; last != filepath.Join(XDGConfigDir(), "config.yaml") {
		t.Errorf("last search path = %q", last)
	}
	if FindConfigFile(t.TempDir()) != "" {
		t.Error("a directory is not a config file")
	}
}
