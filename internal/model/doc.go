// Package model defines the data shared by the crawler, the extractor,
// the pipeline, the history database and the reports: content records
// and run summaries.
package model
