package openai

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/retry"
)

// wrapError wraps an OpenAI SDK error as an almond.ProviderError.
// It extracts status codes and Retry-After headers for proper retry handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &ai.ProviderError{
			Provider: ai.ProviderOpenAI,
			Msg:      "request failed",
			Cat:      retry.Categorize(err),
			Cause:    err,
		}
	}

	code := apiErr.StatusCode
	msg := err.Error()
	if retryAfter := parseRetryAfter(apiErr.Response); retryAfter > 0 {
		return ai.NewTransientErrorWithRetry(ai.ProviderOpenAI, msg, code, retryAfter, err)
	}

	return &ai.ProviderError{
		Provider: ai.ProviderOpenAI,
		Msg:      msg,
		Cat:      retry.CategorizeStatusCode(code),
		Code:     code,
		Cause:    err,
	}
}

// parseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return 0
}
