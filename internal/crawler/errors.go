package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrNavigation indicates a page could not be loaded or read.
	ErrNavigation = errors.New("navigation failed")
	// ErrElementInteraction indicates an element could not be located or clicked.
	ErrElementInteraction = errors.New("element interaction failed")
	// ErrUnsupportedContentType indicates a response that is neither HTML nor JSON.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrFileResourceSkipped indicates a URL classified as a downloadable file.
	ErrFileResourceSkipped = errors.New("file resource skipped")
)

// PageError records which operation failed on which page.
type PageError struct {
	URL string
	Op  string
	Err error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// pageError wraps cause under sentinel so that errors.Is matches both.
func pageError(op, url string, sentinel, cause error) *PageError {
	if cause == nil {
		return &PageError{URL: url, Op: op, Err: sentinel}
	}
	return &PageError{URL: url, Op: op, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}
