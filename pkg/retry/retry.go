// Package retry re-runs operations that fail with transient errors.
//
// Only errors marked with [Transient] are retried. Anything else, such as
// bad credentials or a malformed URI, is returned on the first attempt.
package retry

import (
	"context"
	"errors"
	"time"
)

// Defaults used by [Connect].
const (
	DefaultAttempts = 3
	DefaultDelay    = 250 * time.Millisecond
)

// TransientError marks an error as worth another attempt.
type TransientError struct{ Err error }

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so that [Do] retries it. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err was marked with [Transient].
func IsTransient(err error) bool {
	return errors.As(err, new(*TransientError))
}

// Do calls fn up to attempts times, doubling delay after each transient
// failure. It returns the last error with the transient marker removed,
// or ctx.Err() if ctx ends while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
			delay *= 2
		}
	}
	var te *TransientError
	if errors.As(lastErr, &te) {
		return te.Err
	}
	return lastErr
}

// Connect runs a connection probe with the default policy. Every failure
// of probe is treated as transient.
func Connect(ctx context.Context, probe func(context.Context) error) error {
	return Do(ctx, DefaultAttempts, DefaultDelay, func(ctx context.Context) error {
		return Transient(probe(ctx))
	})
}
