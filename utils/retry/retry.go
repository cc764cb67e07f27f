// Package retry runs outbound calls under a bounded retry policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DelayFunc returns the wait before the next attempt, given the 1-based
// number of the attempt that just failed.
type DelayFunc func(attempt int) time.Duration

// Policy bounds a retried call.
type Policy struct {
	MaxAttempts int
	Delay       DelayFunc
	// OnRetry, when set, is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Linear waits attempt × unit: unit, 2·unit, 3·unit, ...
func Linear(unit time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * unit
	}
}

// Exponential waits base, 2·base, 4·base, ...
func Exponential(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return time.Duration(1<<(attempt-1)) * base
	}
}

// Permanent marks err as non-retryable; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// policyBackOff adapts a DelayFunc to backoff.BackOff.
type policyBackOff struct {
	delay   DelayFunc
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.delay(b.attempt)
}

func (b *policyBackOff) Reset() {
	b.attempt = 0
}

// Do calls op until it succeeds, returns a permanent error, the context ends,
// or MaxAttempts calls have been made. The last error is returned on failure.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay == nil {
		p.Delay = Linear(time.Second)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		return op(ctx, attempt)
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(&policyBackOff{delay: p.Delay}),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			p.OnRetry(attempt, err, wait)
		}))
	}

	return backoff.Retry(ctx, operation, opts...)
}
