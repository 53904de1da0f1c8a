package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitegraph/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONRun is the serialized form of a run.
type JSONRun struct {
	*model.Run

	Status          string       `json:"status"`
	DurationSeconds float64      `json:"duration_seconds"`
	TopPages        []PageDegree `json:"top_pages,omitempty"`
}

// NewJSONRun wraps run with its derived fields.
func NewJSONRun(run *model.Run) JSONRun {
	return JSONRun{
		Run:             run,
		Status:          run.Status(),
		DurationSeconds: run.Duration().Seconds(),
		TopPages:        TopPages(run.RawGraph, topPagesLimit),
	}
}

// Write outputs run as a JSON object.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(NewJSONRun(run))
}

// WriteHistory outputs runs as a JSON array.
func (w *JSONWriter) WriteHistory(runs []*model.Run) (int, error) {
	out := make([]JSONRun, len(runs))
	for i, r := range runs {
		out[i] = NewJSONRun(r)
	}
	return w.writeJSON(out)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
