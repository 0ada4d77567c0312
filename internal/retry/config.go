// Package retry provides retry logic with exponential backoff for transient
// provider errors.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts (default: 3).
	// The initial request counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the delay before the first retry (default: 2s).
	InitialDelay time.Duration

	// MaxDelay caps the delay between attempts (default: 10s).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64

	// Jitter adds randomness to the delay (default: 0, fully deterministic).
	// Delay is multiplied by (1 + random(-jitter, +jitter)).
	Jitter float64
}

// DefaultConfig returns the default retry configuration.
// - 3 max attempts
// - 2 second initial delay
// - 10 second max delay
// - 2x exponential multiplier
// - no jitter
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0,
	}
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay calculates the delay after a given failed attempt (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 + jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		jitterFactor := 1.0 + (rand.Float64()*2-1)*c.Jitter
		delay *= jitterFactor
	}

	return time.Duration(delay)
}

func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}
