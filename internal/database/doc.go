// Package database keeps the crawl history of sitegraph in SQLite.
//
// The JSON artifacts written by the crawler remain the source of truth
// for resuming. The database mirrors them so that runs can be listed and
// compared across sessions:
//   - runs: one row per crawl or extraction run with its counters
//   - edges: the raw link graph of each site
//   - contents: the latest extracted record of each URL
//
// The driver is modernc.org/sqlite, which needs no cgo. The database is
// opened in WAL mode with a single connection.
package database
