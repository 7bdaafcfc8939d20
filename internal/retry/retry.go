// Package retry wraps fallible repository calls with bounded
// exponential-backoff retry. Only errors classified as retryable enter the
// backoff loop; terminal errors propagate immediately.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/satchel/pkg/apperr"
)

// Defaults: one initial attempt plus two retries, delays of 300ms then 600ms.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 300 * time.Millisecond
)

// Executor runs operations with retry. The zero value is not usable; use New.
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
	log         zerolog.Logger
}

// New returns an Executor with the default attempt bound and base delay.
func New(log zerolog.Logger) *Executor {
	return &Executor{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		log:         log,
	}
}

// NewWith returns an Executor with explicit bounds, for tests that must not
// sleep through real backoff delays.
func NewWith(log zerolog.Logger, maxAttempts int, baseDelay time.Duration) *Executor {
	return &Executor{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		log:         log,
	}
}

// Do runs fn up to the executor's attempt bound, classifying every failure.
// The delay before retry k is baseDelay * 2^(k-1). Do never mutates caller
// state; on failure it returns the last classified error. If the loop exits
// without a captured error, a generic unknown error for op is returned so
// the call can never silently produce no result and no error.
func Do[T any](ctx context.Context, ex *Executor, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr *apperr.Error

	for attempt := 1; attempt <= ex.maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = apperr.Classify(op, err)
		if !lastErr.Retryable || attempt == ex.maxAttempts {
			return zero, lastErr
		}

		delay := ex.baseDelay << (attempt - 1)
		ex.log.Debug().
			Str("operation", op).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(lastErr).
			Msg("retrying after backoff")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, apperr.Classify(op, ctx.Err())
		case <-timer.C:
		}
	}

	if lastErr != nil {
		return zero, lastErr
	}
	return zero, apperr.Unknown(op, nil)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, ex *Executor, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, ex, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
