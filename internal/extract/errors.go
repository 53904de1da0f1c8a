package extract

import "errors"

// ErrRobotsDisallowed is returned by Fetch when robots.txt forbids the URL.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
