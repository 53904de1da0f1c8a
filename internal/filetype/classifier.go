// Package filetype decides whether a URL points at a binary, document or
// media resource that should never be fetched or rendered.
package filetype

import (
	"net/url"
	"path"
	"strings"
)

// DefaultSuffixes lists the extensions treated as non-HTML resources
// when no list is configured.
var DefaultSuffixes = []string{
	// documents
	"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf", "csv", "txt", "epub",
	// archives
	"zip", "rar", "7z", "tar", "gz", "tgz", "bz2", "xz",
	// images
	"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "ico", "tif", "tiff",
	// audio and video
	"mp3", "wav", "flac", "ogg", "m4a", "mp4", "avi", "mov", "wmv", "flv", "mkv", "webm",
	// executables and images of disks
	"exe", "msi", "apk", "dmg", "iso", "bin", "deb", "rpm",
}

// Classifier matches URLs against a set of file suffixes.
// The zero value matches nothing.
type Classifier struct {
	suffixes map[string]struct{}
}

// New returns a Classifier for the given suffixes. Suffixes are matched
// case-insensitively with or without a leading dot.
// An empty list selects DefaultSuffixes.
func New(suffixes []string) *Classifier {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}
	c := &Classifier{suffixes: make(map[string]struct{}, len(suffixes))}
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
		if s != "" {
			c.suffixes[s] = struct{}{}
		}
	}
	return c
}

// IsFile reports whether the final path segment of rawURL ends in one of
// the configured suffixes. Query strings and fragments are ignored.
func (c *Classifier) IsFile(rawURL string) bool {
	if c == nil || len(c.suffixes) == 0 {
		return false
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := path.Ext(p)
	if ext == "" {
		return false
	}
	_, ok := c.suffixes[strings.ToLower(ext[1:])]
	return ok
}

// Suffixes returns the configured suffixes in no particular order.
func (c *Classifier) Suffixes() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.suffixes))
	for s := range c.suffixes {
		out = append(out, s)
	}
	return out
}
