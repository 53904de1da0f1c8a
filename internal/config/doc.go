// Package config provides configuration structures and utilities for
// sitegraph. It holds crawl, interaction and extraction settings, the
// optional YAML file with per-site overrides, and XDG directory helpers.
package config
