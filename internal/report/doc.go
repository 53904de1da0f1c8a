// Package report writes run summaries.
//
// Writers:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: machine-readable output
//   - MarkdownWriter: a shareable document built with nao1215/markdown
//
// Each writer renders a single run (Write) or a run history (WriteHistory).
package report
