package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no URL is given.
	ErrNoTarget = errors.New("no target specified: provide at least one URL")

	// ErrInvalidDepth is returned when the maximum depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative (0 means unbounded)")

	// ErrInvalidConcurrency is returned when any pool size is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidWait is returned when a wait duration is negative.
	ErrInvalidWait = errors.New("invalid wait: must be non-negative")

	// ErrInvalidThreshold is returned when the browser fallback threshold is negative.
	ErrInvalidThreshold = errors.New("invalid threshold: must be non-negative")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidRetries is returned when the retry settings are out of range.
	ErrInvalidRetries = errors.New("invalid retries: attempts must be positive and backoff non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidFailurePolicy is returned for an unknown failure policy.
	ErrInvalidFailurePolicy = errors.New(`invalid failure policy: must be "fail-fast" or "skip"`)

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New(`invalid report format: must be "text", "json" or "markdown"`)
)
