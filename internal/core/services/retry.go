package services

import (
	"time"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// RetryPolicy decides whether a failed call is retried.
// attempt counts consecutive failures, starting at 1. It returns the delay
// before the next attempt and whether to retry at all.
type RetryPolicy func(attempt int, err error) (time.Duration, bool)

// RetryTransient retries errors classified by domain.IsTransient after a
// fixed interval. maxAttempts bounds consecutive retries; zero or less
// retries without limit. Every other error is returned to the caller.
func RetryTransient(interval time.Duration, maxAttempts int) RetryPolicy {
	return func(attempt int, err error) (time.Duration, bool) {
		if !domain.IsTransient(err) {
			return 0, false
		}
		if maxAttempts > 0 && attempt > maxAttempts {
			return 0, false
		}
		return interval, true
	}
}

// NoRetry never retries.
func NoRetry(int, error) (time.Duration, bool) {
	return 0, false
}
