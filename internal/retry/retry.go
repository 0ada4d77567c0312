package retry

import (
	"context"
	"time"

	"github.com/spetersoncode/almond"
)

// after is swapped in tests to observe backoff delays without sleeping.
var after = time.After

// effectiveDelay returns the delay to use, honoring the server's Retry-After
// if larger, but never beyond the configured cap.
func effectiveDelay(cfg Config, attempt int, err error) time.Duration {
	delay := cfg.Delay(attempt)
	if serverDelay := almond.RetryAfterOf(err); serverDelay > delay {
		delay = serverDelay
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// Do executes fn with retry logic.
// It respects context cancellation during backoff waits.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	return DoWithEvents(ctx, cfg, nil, fn)
}

// DoWithEvents is like Do but emits events for observability.
// Events are sent non-blocking; if the channel is full, events are dropped.
// Pass nil for events to disable event emission (equivalent to Do).
func DoWithEvents[T any](ctx context.Context, cfg Config, events chan<- Event, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	maxAttempts := cfg.attempts()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		emit(events, Event{
			Type:        EventAttemptStart,
			Attempt:     attempt + 1,
			MaxAttempts: maxAttempts,
		})

		result, err := fn(ctx)
		if err == nil {
			emit(events, Event{
				Type:        EventSuccess,
				Attempt:     attempt + 1,
				MaxAttempts: maxAttempts,
			})
			return result, nil
		}

		lastErr = err
		retryable := IsTransient(err)

		emit(events, Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt + 1,
			MaxAttempts: maxAttempts,
			Error:       err,
			Retryable:   retryable,
		})

		if !retryable {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < maxAttempts-1 {
			delay := effectiveDelay(cfg, attempt, err)

			emit(events, Event{
				Type:        EventRetrying,
				Attempt:     attempt + 1,
				MaxAttempts: maxAttempts,
				Delay:       delay,
			})

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-after(delay):
			}
		}
	}

	emit(events, Event{
		Type:        EventExhausted,
		Attempt:     maxAttempts,
		MaxAttempts: maxAttempts,
		Error:       lastErr,
	})

	return zero, lastErr
}
