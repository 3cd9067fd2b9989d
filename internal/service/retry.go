package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"prolly/internal/apperr"
)

// DefaultRetryAttempts is how often callers usually try a unit that keeps
// failing with a transient store error.
const DefaultRetryAttempts = 3

var retryBackoff = 20 * time.Millisecond

// RetryTransient runs fn up to attempts times while it fails with a
// transient error, waiting a jittered, growing pause between tries. Any
// other error, or success, returns immediately. Cancelling ctx stops the
// waiting and returns the context's error.
func RetryTransient(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryBackoff
	policy.MaxInterval = 10 * retryBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err != nil && !apperr.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(attempts)),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}
