// Package retry runs an operation with capped exponential backoff. It is
// shared by the sync queue and the text generation client.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// timeSleep is a wrapper for time.After that can be overridden in tests.
//
//nolint:gochecknoglobals // Required for test mocking
var timeSleep = func(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Policy describes how many times and how fast an operation is retried.
type Policy struct {
	// MaxAttempts is the number of tries including the first. Values below 1 mean 1.
	MaxAttempts int
	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between attempts. Zero means no cap.
	MaxBackoff time.Duration
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable determines whether an error should be retried.
// Context errors, errors wrapped with Permanent and validation failures are
// final. Everything else (network errors, timeouts of a single call, 5xx) is
// considered transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p *permanentError
	if errors.As(err, &p) {
		return false
	}
	if tferrors.IsValidation(err) || errors.Is(err, tferrors.ErrRemoteCorrupted) {
		return false
	}
	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, the policy's
// attempts are used up, or ctx is done. The returned error wraps the last
// failure; after exhausting attempts it also wraps ErrMaxRetriesExceeded.
func Do(ctx context.Context, logger zerolog.Logger, policy Policy, fn func(ctx context.Context) error) error {
	attempts := max(policy.MaxAttempts, 1)
	backoff := policy.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return errors.Join(lastErr, err)
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			logger.Debug().
				Err(err).
				Int("attempt", attempt).
				Msg("operation failed with non-retryable error")
			return err
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", backoff).
			Msg("operation failed, will retry after backoff")

		select {
		case <-ctx.Done():
			return errors.Join(lastErr, ctx.Err())
		case <-timeSleep(backoff):
		}

		backoff *= 2
		if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return errors.Join(tferrors.ErrMaxRetriesExceeded, lastErr)
}
