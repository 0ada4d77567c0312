package google

import (
	"errors"

	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/retry"
	"google.golang.org/genai"
)

// wrapError wraps a GenAI error as an almond.ProviderError.
// genai.APIError does not expose headers, so Retry-After is unavailable.
func wrapError(p ai.Provider, err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return &ai.ProviderError{
			Provider: p,
			Msg:      "request failed",
			Cat:      retry.Categorize(err),
			Cause:    err,
		}
	}
	return &ai.ProviderError{
		Provider: p,
		Msg:      err.Error(),
		Cat:      retry.CategorizeStatusCode(apiErr.Code),
		Code:     apiErr.Code,
		Cause:    err,
	}
}
