package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/model"
)

// Format names accepted by New.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// topPagesLimit is how many pages the out-degree ranking shows.
const topPagesLimit = 10

// Writer renders run summaries.
type Writer interface {
	// Write outputs one run and returns the number of bytes written.
	Write(run *model.Run) (int, error)

	// WriteHistory outputs a list of runs, newest first.
	WriteHistory(runs []*model.Run) (int, error)
}

// New returns the Writer for format.
func New(format string, output io.Writer) (Writer, error) {
	switch format {
	case "", FormatText:
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// MultiWriter writes to multiple Writers, stopping at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs run to all Writers.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs runs to all Writers.
func (m *MultiWriter) WriteHistory(runs []*model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// PageDegree is a page and its number of outgoing links.
type PageDegree struct {
	URL   string `json:"url"`
	Links int    `json:"links"`
}

// TopPages ranks the pages of g by out-degree, ties broken by URL.
func TopPages(g linkgraph.Graph, limit int) []PageDegree {
	pages := make([]PageDegree, 0, len(g))
	for u, links := range g {
		pages = append(pages, PageDegree{URL: u, Links: len(links)})
	}
	slices.SortFunc(pages, func(a, b PageDegree) int {
		if c := cmp.Compare(b.Links, a.Links); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
	if limit > 0 && len(pages) > limit {
		pages = pages[:limit]
	}
	return pages
}

func statusText(run *model.Run) string {
	switch run.Status() {
	case model.StatusCanceled:
		return "Canceled (partial results)"
	case model.StatusFailed:
		return "Error - " + run.ErrorMessage
	case model.StatusRunning:
		return "Running"
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
