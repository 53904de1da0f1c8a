// Package crawler maps the link graph of a website with a headless browser.
//
// Two crawlers share one traversal engine:
//
//   - LinkCrawler records every http(s) anchor of each rendered page.
//   - Discoverer additionally clicks numeric pagination elements and
//     javascript: anchors, records the URL each interaction lands on, and
//     keeps only links on the site's own origin.
//
// The traversal visits pages concurrently up to a page-slot limit, visits
// each URL at most once, and reports every recorded page through a
// checkpoint callback. A preloaded graph, usually the last checkpoint,
// is reused without fetching so that interrupted crawls resume where they
// stopped.
//
// # Usage
//
//	chrome, _ := browser.NewChrome(ctx)
//	lc := crawler.NewLinkCrawler(chrome, crawler.WithMaxDepth(2))
//	graph, err := lc.CrawlSite(ctx, "https://example.com", "out_raw.json", "out.json")
package crawler
