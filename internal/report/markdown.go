package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitegraph/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown, for sharing a crawl
// result in an issue or a wiki page.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeCounters(md, run)
	if run.Kind == model.RunContent {
		w.writeSources(md, run)
	} else {
		w.writeTopPages(md, run)
	}
	w.writeAlert(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs runs as a single table.
func (w *MarkdownWriter) WriteHistory(runs []*model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Sitegraph History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No runs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			string(r.Kind),
			r.Status(),
			r.StartedAt.Format("2006-01-02 15:04:05 MST"),
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.Edges),
			strconv.Itoa(r.RecordCount),
			"`" + truncateString(r.Site, 60) + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Kind", "Status", "Started", "Pages", "Edges", "Records", "Site"},
		Rows:   rows,
	})
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Sitegraph Report")
	md.PlainText("")

	rows := [][]string{
		{"Site", "`" + run.Site + "`"},
		{"Kind", string(run.Kind)},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", run.Duration().Round(time.Millisecond).String()},
		{"Status", statusText(run)},
	}
	if run.Output != "" {
		rows = append(rows, []string{"Output", "`" + run.Output + "`"})
	}
	if run.RawOutput != "" {
		rows = append(rows, []string{"Raw checkpoint", "`" + run.RawOutput + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, run *model.Run) {
	md.H2("Counters")
	md.PlainText("")

	var rows [][]string
	if run.Kind == model.RunContent {
		rows = [][]string{
			{"Inputs", strconv.Itoa(len(run.Inputs))},
			{"Records", strconv.Itoa(run.RecordCount)},
			{"Browser fallbacks", strconv.Itoa(run.BrowserFallbacks)},
		}
	} else {
		rows = [][]string{
			{"Pages", strconv.Itoa(run.Pages)},
			{"Edges", strconv.Itoa(run.Edges)},
			{"Cleaned depth", strconv.Itoa(run.Depth)},
		}
	}
	if run.Attempts > 0 {
		rows = append(rows, []string{"Attempts", strconv.Itoa(run.Attempts)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeTopPages ranks crawled pages by out-degree.
func (w *MarkdownWriter) writeTopPages(md *markdown.Markdown, run *model.Run) {
	top := TopPages(run.RawGraph, topPagesLimit)
	if len(top) == 0 {
		return
	}
	md.H2("Top Pages")
	md.PlainText("")

	rows := make([][]string, len(top))
	for i, p := range top {
		rows[i] = []string{strconv.Itoa(i + 1), truncateString(p.URL, 80), strconv.Itoa(p.Links)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Page", "Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSources charts how records were obtained.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, run *model.Run) {
	static := run.RecordCount - run.BrowserFallbacks
	if run.RecordCount == 0 {
		return
	}
	md.H2("Content Sources")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Records by fetch method"),
		piechart.WithShowData(true),
	)
	if static > 0 {
		chart.LabelAndIntValue("HTTP", uint64(static)) //nolint:gosec // non-negative
	}
	if run.BrowserFallbacks > 0 {
		chart.LabelAndIntValue("Browser", uint64(run.BrowserFallbacks)) //nolint:gosec // non-negative
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	untitled := 0
	for _, r := range run.Records {
		if r.Content.Title == "" {
			untitled++
		}
	}
	if untitled > 0 {
		md.Details("Untitled records", strconv.Itoa(untitled)+" record(s) have no title (file URLs, JSON bodies, or failed fetches).")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch run.Status() {
	case model.StatusFailed:
		md.Cautionf("The run failed: %s", run.ErrorMessage)
	case model.StatusCanceled:
		md.Warningf("The run was canceled. The checkpoint keeps partial results; rerun to resume.")
	case model.StatusOK:
		if run.Kind != model.RunContent && run.Edges == 0 {
			md.Note("No links were recorded.")
		} else {
			md.Tip("Run completed.")
		}
	default:
		return
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitegraph](https://github.com/nao1215/sitegraph)*")
}
