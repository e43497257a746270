// Package retry runs an operation under an exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
	defaultMultiplier  = 2
)

// ErrInvalidPolicy is returned when a Policy cannot be applied.
var ErrInvalidPolicy = errors.New("retry policy needs at least one attempt")

// Policy describes how many times to try and how long to wait in between.
// The delay before attempt n+1 is BaseDelay * Multiplier^(n-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultPolicy returns 3 attempts with delays of 1s then 2s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		Multiplier:  defaultMultiplier,
	}
}

// Delay returns the wait that follows the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	return time.Duration(d)
}

// SleepFunc waits for d. Tests swap it for a recorder.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d on a timer, so only the calling goroutine is held.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier applies a Policy to an operation.
type Retrier struct {
	Policy Policy
	// Retryable decides whether a failed attempt may be retried.
	Retryable func(error) bool
	// Sleep defaults to retry.Sleep.
	Sleep SleepFunc
	// OnRetry, when set, is called before each backoff wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ExhaustedError reports that every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return "retries exhausted: " + e.Err.Error()
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. No wait follows the final attempt.
func Do[T any](ctx context.Context, r Retrier, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if r.Policy.MaxAttempts < 1 {
		return zero, ErrInvalidPolicy
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= r.Policy.MaxAttempts; attempt++ {
		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if r.Retryable == nil || !r.Retryable(err) {
			return zero, err
		}
		if attempt == r.Policy.MaxAttempts {
			break
		}

		delay := r.Policy.Delay(attempt)
		if r.OnRetry != nil {
			r.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Attempts: r.Policy.MaxAttempts, Err: lastErr}
}
