package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up in the
// working and home directories.
const DefaultConfigFile = ".sitegraph"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrInvalidConfigFile wraps problems found in a parsed configuration file.
var ErrInvalidConfigFile = errors.New("invalid configuration file")

// LoadConfigFile reads and checks the YAML configuration file at path.
// Unknown keys are rejected so a misspelled option does not silently fall
// back to its default. A file holding only comments yields an empty File.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-chosen path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for host, sc := range cf.Sites {
		sites[strings.ToLower(host)] = sc
	}
	cf.Sites = sites

	if err := cf.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cf, nil
}

// check rejects values the crawler would otherwise misinterpret.
func (cf *File) check() error {
	if cf.RateLimit < 0 {
		return fmt.Errorf("%w: rateLimit must be non-negative", ErrInvalidConfigFile)
	}
	if err := cf.Defaults.check("defaults"); err != nil {
		return err
	}
	for host, sc := range cf.Sites {
		if err := sc.check("sites." + host); err != nil {
			return err
		}
	}
	return nil
}

func (sc SiteConfig) check(where string) error {
	if sc.Depth < 0 || sc.Concurrency < 0 || sc.InteractionConcurrency < 0 {
		return fmt.Errorf("%w: %s: depth and concurrency must be non-negative", ErrInvalidConfigFile, where)
	}
	if sc.Wait < 0 || sc.TargetWait < 0 {
		return fmt.Errorf("%w: %s: waits must be non-negative", ErrInvalidConfigFile, where)
	}
	for _, p := range append(append([]string{}, sc.IgnorePatterns...), sc.FollowPatterns...) {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("%w: %s: pattern %q: %v", ErrInvalidConfigFile, where, p, err)
		}
	}
	return nil
}

// SearchPaths returns the locations FindConfigFile tries, in order:
// the working directory, the home directory and the XDG config directory.
func SearchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
}

// FindConfigFile returns configPath if it exists, or the first existing
// entry of SearchPaths when configPath is empty. It returns "" when
// nothing is found.
func FindConfigFile(configPath string) string {
	candidates := SearchPaths()
	if configPath != "" {
		candidates = []string{configPath}
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
