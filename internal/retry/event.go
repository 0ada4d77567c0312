package retry

import "time"

// EventType names a point in the attempt loop.
type EventType string

const (
	EventAttemptStart  EventType = "attempt_start"
	EventAttemptFailed EventType = "attempt_failed"
	EventRetrying      EventType = "retrying"
	EventSuccess       EventType = "success"
	EventExhausted     EventType = "exhausted"
)

// Event reports progress of one DoWithEvents call. Attempt is 1-based.
// Delay is set only on EventRetrying; Error and Retryable only on
// EventAttemptFailed and EventExhausted.
type Event struct {
	Type        EventType
	Attempt     int
	MaxAttempts int
	Error       error
	Delay       time.Duration
	Retryable   bool
	Timestamp   time.Time
}

// emit stamps e and delivers it if ch has room. A full or nil channel
// drops the event.
func emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
