// Package pipeline runs crawl and extraction operations as a sequence of
// steps over a model.Run.
//
// A Pipeline executes its steps in order and records the outcome in the
// run: performed steps, the error that ended it, and whether it was
// canceled. Steps registered with WithFinally run even after a failure
// or cancellation, which is how the history database mirror still sees
// partial runs.
//
// Whole-site operations are wrapped in Retry. Each retry resumes from
// the checkpoint written by the previous attempt, so retries are cheap.
//
// BatchProcessor runs one pipeline per site with bounded concurrency.
package pipeline
