package almond

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can be retried.
	// Examples: rate limits, temporary network issues, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, model not found.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the request itself was rejected and must be corrected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// ProviderError is a transport or backend failure from a text-generation call.
type ProviderError struct {
	Provider   Provider
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error
}

// Error returns the error message.
func (e *ProviderError) Error() string {
	prefix := "provider error"
	if e.Provider != "" {
		prefix = fmt.Sprintf("%s provider error", e.Provider)
	}
	if e.Cause != nil && e.Msg != e.Cause.Error() {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Msg)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Category returns the error category.
func (e *ProviderError) Category() ErrorCategory {
	return e.Cat
}

// Retryable returns true if the error is transient and can be retried.
func (e *ProviderError) Retryable() bool {
	return e.Cat == ErrorTransient
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *ProviderError) StatusCode() int {
	return e.Code
}

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *ProviderError) RetryAfter() time.Duration {
	return e.RetryDelay
}

// NewTransientError creates a transient error that can be retried.
func NewTransientError(p Provider, msg string, statusCode int, cause error) *ProviderError {
	return &ProviderError{Provider: p, Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry creates a transient error with a suggested retry delay.
func NewTransientErrorWithRetry(p Provider, msg string, statusCode int, retryAfter time.Duration, cause error) *ProviderError {
	return &ProviderError{
		Provider:   p,
		Msg:        msg,
		Cat:        ErrorTransient,
		Code:       statusCode,
		RetryDelay: retryAfter,
		Cause:      cause,
	}
}

// NewPermanentError creates a permanent error that should not be retried.
func NewPermanentError(p Provider, msg string, statusCode int, cause error) *ProviderError {
	return &ProviderError{Provider: p, Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error indicating the backend rejected the request.
func NewUserInputError(p Provider, msg string, statusCode int, cause error) *ProviderError {
	return &ProviderError{Provider: p, Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// InvalidStructuredResponseError reports a successful call whose body is not
// a JSON object after code fences are stripped.
type InvalidStructuredResponseError struct {
	Raw   string
	Cause error
}

func (e *InvalidStructuredResponseError) Error() string {
	raw := e.Raw
	if len([]rune(raw)) > 200 {
		raw = string([]rune(raw)[:200]) + "..."
	}
	if e.Cause != nil {
		return fmt.Sprintf("invalid structured response: %v (raw: %q)", e.Cause, raw)
	}
	return fmt.Sprintf("invalid structured response (raw: %q)", raw)
}

func (e *InvalidStructuredResponseError) Unwrap() error {
	return e.Cause
}

// ConfigurationError is returned when a provider cannot be resolved because a
// required credential or setting is missing.
type ConfigurationError struct {
	Provider Provider
	Setting  string
	Msg      string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Msg != "":
		return fmt.Sprintf("configuration error for %s: %s", e.Provider, e.Msg)
	case e.Setting != "":
		return fmt.Sprintf("configuration error for %s: %s is required", e.Provider, e.Setting)
	default:
		return fmt.Sprintf("configuration error for %s", e.Provider)
	}
}

// UnsupportedProviderError is returned for provider names outside the known set.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Name)
}

// IsTransient returns true if the error is categorized as transient.
// It checks if the error or any wrapped error implements CategorizedError.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if the error is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// IsUserInput returns true if the error is categorized as a user input error.
func IsUserInput(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorUserInput
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}
