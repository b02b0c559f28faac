package generate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var (
	ErrInvalidKey        = errors.New("generate: API key is missing or invalid")
	ErrQuotaOrSafety     = errors.New("generate: request declined (quota or safety)")
	ErrMalformedResponse = errors.New("generate: malformed response")
	ErrUnavailable       = errors.New("generate: service unavailable")
	ErrNetwork           = errors.New("generate: network error")
)

// classify maps a backend error to one of the package errors. The
// API's own message is kept so it can be shown to the operator.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	kind := ErrUnavailable
	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusUnauthorized,
		apiErr.Code == http.StatusForbidden,
		strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "api_key_invalid"):
		kind = ErrInvalidKey
	case apiErr.Code == http.StatusTooManyRequests,
		apiErr.Status == "RESOURCE_EXHAUSTED",
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "safety"):
		kind = ErrQuotaOrSafety
	}
	return fmt.Errorf("%w: %s", kind, apiErr.Message)
}
