package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/spetersoncode/almond"
)

// statusCoder is an interface for errors that have an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether err should be retried. Only provider errors
// categorized as transient qualify; parse and validation failures never do.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pe *almond.ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// Categorize derives an error category for an uncategorized transport error.
// Backends use it for failures that do not come with an API status code.
func Categorize(err error) almond.ErrorCategory {
	if err == nil {
		return ""
	}

	var ce almond.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category()
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return CategorizeStatusCode(sc.StatusCode())
	}

	if errors.Is(err, context.DeadlineExceeded) || isTransientNetworkError(err) {
		return almond.ErrorTransient
	}

	return almond.ErrorPermanent
}

// CategorizeStatusCode determines the error category from an HTTP status code.
func CategorizeStatusCode(code int) almond.ErrorCategory {
	switch {
	case isTransientStatusCode(code):
		return almond.ErrorTransient
	case code == 401 || code == 403:
		return almond.ErrorPermanent // Authentication/authorization
	case code == 400 || code == 404 || code == 422:
		return almond.ErrorUserInput // Bad request or not found
	default:
		return almond.ErrorPermanent
	}
}

// isTransientStatusCode checks if an HTTP status code indicates a transient error.
func isTransientStatusCode(code int) bool {
	// 429 = Rate Limited
	if code == 429 {
		return true
	}
	// 5xx = Server Errors
	return code >= 500 && code < 600
}

// isTransientNetworkError checks for network-level transient errors.
func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset",
		"connection refused",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"rate limit",
		"bad gateway",
		"gateway timeout",
		"unexpected eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
