package client

import (
	"time"

	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/retry"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires before a generation request begins.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after a generation request completes successfully.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when a generation request fails.
	EventRequestError EventType = "request_error"

	// EventRetry fires when a retry event occurs (forwarded from retry package).
	EventRetry EventType = "retry"

	// EventCacheHit fires when a structured request is served from the cache.
	EventCacheHit EventType = "cache_hit"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Operation identifies the call ("generate", "generate_structured", "health_check").
	Operation string

	// Provider identifies which backend is being used.
	Provider almond.Provider

	// Model is the model name being used.
	Model string

	// Duration is the elapsed time for completed requests.
	Duration time.Duration

	// Usage contains token usage information.
	Usage *almond.Usage

	// Error contains the error for EventRequestError.
	Error error

	// RetryEvent contains the underlying retry event for EventRetry.
	RetryEvent *retry.Event

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
