package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitegraph/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs plain text for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the step list and the top pages ranking.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs run in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	fmt.Fprintf(&sb, "SITEGRAPH %s RUN\n", strings.ToUpper(string(run.Kind)))
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	fmt.Fprintf(&sb, "Site:      %s\n", run.Site)
	fmt.Fprintf(&sb, "Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Duration:  %s\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Status:    %s\n", statusText(run))
	if run.Output != "" {
		fmt.Fprintf(&sb, "Output:    %s\n", run.Output)
	}
	if run.RawOutput != "" {
		fmt.Fprintf(&sb, "Raw:       %s\n", run.RawOutput)
	}
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	if run.Kind == model.RunContent {
		fmt.Fprintf(&sb, "  Inputs:            %d\n", len(run.Inputs))
		fmt.Fprintf(&sb, "  Records:           %d\n", run.RecordCount)
		fmt.Fprintf(&sb, "  Browser fallbacks: %d\n", run.BrowserFallbacks)
	} else {
		fmt.Fprintf(&sb, "  Pages:  %d\n", run.Pages)
		fmt.Fprintf(&sb, "  Edges:  %d\n", run.Edges)
		fmt.Fprintf(&sb, "  Depth:  %d\n", run.Depth)
	}
	if run.Attempts > 1 {
		fmt.Fprintf(&sb, "  Attempts: %d\n", run.Attempts)
	}

	if w.verbose {
		if len(run.PerformedSteps) > 0 {
			fmt.Fprintf(&sb, "  Steps:  %s\n", strings.Join(run.PerformedSteps, ", "))
		}
		if top := TopPages(run.RawGraph, topPagesLimit); len(top) > 0 {
			sb.WriteString("\nTop pages by outgoing links:\n")
			for _, p := range top {
				fmt.Fprintf(&sb, "  %5d  %s\n", p.Links, p.URL)
			}
		}
	}
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs one line per run.
func (w *SimpleWriter) WriteHistory(runs []*model.Run) (int, error) {
	var sb strings.Builder
	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}
	fmt.Fprintf(&sb, "%-5s %-8s %-9s %-19s %7s %7s  %s\n", "ID", "KIND", "STATUS", "STARTED", "PAGES", "ITEMS", "SITE")
	for _, r := range runs {
		items := r.Edges
		if r.Kind == model.RunContent {
			items = r.RecordCount
		}
		fmt.Fprintf(&sb, "%-5d %-8s %-9s %-19s %7d %7d  %s\n",
			r.ID, r.Kind, r.Status(), r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Pages, items, r.Site)
	}
	return w.output.Write([]byte(sb.String()))
}
