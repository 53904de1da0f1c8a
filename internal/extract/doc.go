// Package extract turns URLs into clean text records.
//
// Extraction runs in two phases. Phase 1 fetches every URL over plain HTTP
// and runs readability extraction (go-trafilatura) on HTML responses.
// Pages whose extracted body is shorter than a threshold are most likely
// rendered client-side; Phase 2 loads them in a headless browser and keeps
// the rendered markup. URLs that point at downloadable files are never
// fetched.
package extract
