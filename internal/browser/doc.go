// Package browser drives a headless Chrome through chromedp.
//
// The crawler and extractor depend only on the Factory and Session
// interfaces, so tests substitute in-memory fakes. Chrome is the
// production Factory: one browser process, one fresh tab per Session.
//
// # Element references
//
// Interactive elements are identified by an ElementRef:
//
//	browser.ByHref{Tag: "a", Href: "javascript:go(2)"}
//	browser.ByText{Tag: "button", Text: "3"}
//
// XPath turns a reference into an exact-match XPath expression.
package browser
