package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nao1215/sitegraph/internal/config"
)

// RetryPolicy bounds the attempts of an operation.
type RetryPolicy struct {
	// Attempts is the maximum number of calls, the first one included.
	Attempts int

	// Backoff is the delay before the second attempt. It doubles for
	// each further attempt.
	Backoff time.Duration

	// MaxBackoff caps the delay between attempts. Zero means no cap.
	MaxBackoff time.Duration

	// Logger receives a warning for every failed attempt.
	Logger *slog.Logger
}

// DefaultRetryPolicy returns the policy built from the config defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   config.DefaultRetries,
		Backoff:    config.DefaultRetryBackoff,
		MaxBackoff: config.DefaultMaxRetryBackoff,
	}
}

// RetryPolicyFromConfig returns the retry policy configured in cfg.
func RetryPolicyFromConfig(cfg *config.Config, logger *slog.Logger) RetryPolicy {
	return RetryPolicy{
		Attempts:   cfg.Retries,
		Backoff:    cfg.RetryBackoff,
		MaxBackoff: cfg.MaxRetryBackoff,
		Logger:     logger,
	}
}

func (p RetryPolicy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

// backOff returns the delay schedule of p: no jitter, doubling from
// Backoff up to MaxBackoff, and Attempts-1 waits at most.
func (p RetryPolicy) backOff() backoff.BackOff {
	maxInterval := p.MaxBackoff
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.Backoff),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithMaxRetries(b, uint64(p.attempts()-1)) //nolint:gosec // attempts() >= 1
}

// Permanent marks err as not worth retrying. Retry returns the wrapped
// error unchanged.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry calls fn until it succeeds, returns a permanent error, the
// attempts are exhausted, or ctx ends. It returns the number of calls
// made and the last error fn returned.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) (int, error) {
	logger := policy.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := policy.attempts()

	var (
		calls   int
		lastErr error
	)
	op := func() error {
		calls++
		lastErr = fn(ctx)
		return lastErr
	}
	notify := func(err error, after time.Duration) {
		logger.Warn("retrying", "attempt", calls+1, "max_attempts", maxAttempts, "after", after, "error", err)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(policy.backOff(), ctx), notify)
	if err != nil && err == ctx.Err() && lastErr != nil { //nolint:errorlint // identity with the context's own error
		// Report what the operation said, not the cancellation that ended the wait.
		return calls, lastErr
	}
	return calls, err
}
