package model

import (
	"time"

	"github.com/nao1215/sitegraph/internal/linkgraph"
)

// RunKind names the operation a Run performed.
type RunKind string

const (
	// RunLinks is a link-graph crawl.
	RunLinks RunKind = "links"

	// RunSubURLs is a sub-URL discovery including simulated clicks.
	RunSubURLs RunKind = "suburls"

	// RunContent is a content extraction.
	RunContent RunKind = "content"
)

// Run status values returned by Run.Status.
const (
	StatusRunning  = "running"
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Run records one execution of a crawl or extraction for one site.
// Pipeline steps fill it in; reports and the history database read it.
type Run struct {
	// ID is the history database identifier, zero until mirrored.
	ID int64 `json:"id,omitempty"`

	Kind RunKind `json:"kind"`

	// Site is the root or site URL, or a label for content runs.
	Site string `json:"site"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Output is the primary artifact path (cleaned graph or content file).
	Output string `json:"output,omitempty"`

	// RawOutput is the raw checkpoint path for crawl runs.
	RawOutput string `json:"raw_output,omitempty"`

	// Graph is the cleaned graph of a crawl run.
	Graph linkgraph.Graph `json:"-"`

	// RawGraph is the raw, possibly cyclic graph of a crawl run.
	RawGraph linkgraph.Graph `json:"-"`

	// Depth is the depth of the cleaned graph.
	Depth int `json:"depth"`

	// Pages is the number of pages with recorded edges in the raw graph.
	Pages int `json:"pages"`

	// Edges is the number of edges in the raw graph.
	Edges int `json:"edges"`

	// Inputs are the URLs handed to a content run.
	Inputs []string `json:"-"`

	// Records are the records produced by a content run.
	Records []Record `json:"-"`

	// RecordCount is len(Records), kept for serialized summaries.
	RecordCount int `json:"records"`

	// BrowserFallbacks counts records re-fetched through the browser.
	BrowserFallbacks int `json:"browser_fallbacks"`

	// Attempts is how many times the crawl step ran, retries included.
	Attempts int `json:"attempts"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that ended the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// Canceled is set when the run stopped because its context ended.
	Canceled bool `json:"canceled,omitempty"`
}

// NewRun starts a run of kind for site.
func NewRun(kind RunKind, site string) *Run {
	return &Run{
		Kind:      kind,
		Site:      site,
		StartedAt: time.Now(),
	}
}

// Fail records err as the reason the run ended.
func (r *Run) Fail(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish stamps the finish time.
func (r *Run) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns the elapsed time of a finished run, or the time since
// start for a running one.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Status summarizes the run state.
func (r *Run) Status() string {
	switch {
	case r.Canceled:
		return StatusCanceled
	case r.ErrorMessage != "":
		return StatusFailed
	case r.FinishedAt.IsZero():
		return StatusRunning
	default:
		return StatusOK
	}
}
