package browser

import "errors"

var (
	// ErrElementNotFound is returned by Click when no element matches the reference.
	ErrElementNotFound = errors.New("element not found")
	// ErrReadyTimeout is returned by WaitReady when the document did not
	// reach readyState "complete" in time. The page may still be readable.
	ErrReadyTimeout = errors.New("document not ready before timeout")
	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("browser session closed")
)
