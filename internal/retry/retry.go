package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/sallandpioneers/code-agent/internal/config"
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// Retryable indicates the error is transient and should be retried
	Retryable ErrorType = iota
	// RateLimited indicates rate limiting - use longer backoff
	RateLimited
	// Permanent indicates the error should not be retried
	Permanent
)

func (t ErrorType) String() string {
	switch t {
	case Retryable:
		return "retryable"
	case RateLimited:
		return "rate_limited"
	default:
		return "permanent"
	}
}

// Classifier is a function that classifies an error
type Classifier func(error) ErrorType

// Options configures retry behavior
type Options struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	RateLimitRetry time.Duration
	Classifier     Classifier
}

// FromConfig returns retry options from config with the given classifier.
// A run never retries forever, so MaxAttempts is at least 1.
func FromConfig(cfg config.RetryConfig, classifier Classifier) Options {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return Options{
		MaxAttempts:    attempts,
		BackoffBase:    cfg.BackoffBase,
		RateLimitRetry: cfg.RateLimitRetry,
		Classifier:     classifier,
	}
}

// maxBackoff caps the maximum backoff duration
const maxBackoff = 2 * time.Minute

// calculateBackoff computes base * 2^attempt plus 0-25% jitter, capped at maxBackoff
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	multiplier := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiplier)
	if delay > maxBackoff {
		delay = maxBackoff
	}

	jitter := time.Duration(rand.Float64() * 0.25 * float64(delay))
	return delay + jitter
}

// Do executes fn until it succeeds, returns a permanent error, the context
// is cancelled, or MaxAttempts is exhausted.
func Do(ctx context.Context, opts Options, fn func() error) error {
	_, err := DoWithResult(ctx, opts, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that return a value
func DoWithResult[T any](ctx context.Context, opts Options, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	attempts := max(opts.MaxAttempts, 1)

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		errType := Permanent
		if opts.Classifier != nil {
			errType = opts.Classifier(lastErr)
		}
		if errType == Permanent || attempt == attempts-1 {
			return result, lastErr
		}

		wait := calculateBackoff(opts.BackoffBase, attempt)
		if errType == RateLimited {
			wait = opts.RateLimitRetry
		}
		clog.FromContext(ctx).With("attempt", attempt+1, "kind", errType.String()).
			Warnf("Retrying in %s after error: %v", wait, lastErr)
		if err := sleep(ctx, wait); err != nil {
			return result, err
		}
	}

	return result, lastErr
}

// sleep waits for the given duration or until context is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
