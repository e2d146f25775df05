package careauth

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goliatone/go-errors"
)

// RetryPolicy bounds every remote read made by this package. The zero value
// means a single attempt with no deadline; DefaultRetryPolicy is what the
// Service and Session Context use unless overridden.
type RetryPolicy struct {
	// Timeout is the per-operation deadline, covering all attempts.
	Timeout time.Duration
	// MaxTries caps attempts, including the first one.
	MaxTries uint
	// InitialInterval seeds the exponential backoff between attempts.
	InitialInterval time.Duration
}

// DefaultRetryPolicy is a fixed deadline with a few quick retries. Remote
// calls never hang indefinitely under it.
var DefaultRetryPolicy = RetryPolicy{
	Timeout:         10 * time.Second,
	MaxTries:        3,
	InitialInterval: 250 * time.Millisecond,
}

// retryRead runs fn under the policy's deadline, retrying transient
// failures with exponential backoff. Domain errors (not found, auth,
// validation, conflict, rate limit) are permanent and returned immediately.
func retryRead[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	operation := func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	bo := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		bo.InitialInterval = policy.InitialInterval
	}

	tries := policy.MaxTries
	if tries == 0 {
		tries = 1
	}

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(tries))
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if errors.As(err, &rich) {
		switch rich.Category {
		case errors.CategoryNotFound,
			errors.CategoryAuth,
			errors.CategoryValidation,
			errors.CategoryBadInput,
			errors.CategoryConflict,
			errors.CategoryRateLimit:
			return false
		}
	}

	return true
}
