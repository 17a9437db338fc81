// Package retry implements the attempt²+jitter backoff used around both
// database commits and object-store uploads, per the project's transient-
// error policy: classify the error, retry a bounded number of times with
// growing jittered delay, otherwise escalate.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/orcaarchive/orca/internal/logger"
)

// ErrExhausted wraps the last error seen once retries run out.
var ErrExhausted = errors.New("retries exhausted")

// Classifier reports whether an error is transient and worth retrying.
type Classifier func(error) bool

// RollbackFunc is invoked before each retry so callers can abandon an
// in-flight transaction under dbx.Lock before the next attempt.
type RollbackFunc func()

// Options configures a single Do call.
type Options struct {
	// Retries is the maximum number of additional attempts after the first.
	Retries int
	// Classify decides whether an error should be retried. A nil Classify
	// treats every error as transient.
	Classify Classifier
	// OnRetry is called (if non-nil) before sleeping ahead of each retry,
	// typically to roll back a partial transaction.
	OnRetry RollbackFunc
}

// Do runs fn, retrying on transient errors with attempt²+uniform(0,1)
// seconds of jittered backoff, up to opts.Retries additional attempts.
// Non-transient errors propagate immediately; exhaustion returns an error
// wrapping ErrExhausted and the last cause.
func Do(ctx context.Context, opts Options, fn func() error) error {
	classify := opts.Classify
	if classify == nil {
		classify = func(error) bool { return true }
	}

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			if opts.OnRetry != nil {
				opts.OnRetry()
			}
			delay := backoff(attempt)
			logger.WithFields(map[string]any{
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("retrying after transient error")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !classify(err) {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, opts.Retries+1, lastErr)
}

// backoff returns attempt² seconds plus a uniform(0,1) second jitter, so
// concurrent peers retrying the same resource don't collide in lockstep.
func backoff(attempt int) time.Duration {
	base := float64(attempt * attempt)
	jitter := rand.Float64()
	return time.Duration((base + jitter) * float64(time.Second))
}
