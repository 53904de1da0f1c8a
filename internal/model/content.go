package model

import (
	"time"
)

// Content is the extracted title and body of a page.
type Content struct {
	// Title is the page title. Browser-rendered records leave it empty.
	Title string `json:"title"`

	// Body is the main text of the page, or the full rendered markup for
	// records produced by the browser fallback.
	Body string `json:"body"`
}

// Record is one extracted page. Records are immutable once created.
type Record struct {
	URL     string  `json:"url"`
	Content Content `json:"content"`

	// ScrapedAt is the capture time in seconds since the Unix epoch.
	ScrapedAt float64 `json:"scraped_at"`
}

// NewRecord stamps content for url with the capture time at.
func NewRecord(url string, content Content, at time.Time) Record {
	return Record{
		URL:       url,
		Content:   content,
		ScrapedAt: float64(at.UnixNano()) / float64(time.Second),
	}
}

// Time returns ScrapedAt as a time.Time.
func (r Record) Time() time.Time {
	sec := int64(r.ScrapedAt)
	nsec := int64((r.ScrapedAt - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}
