package perception

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ErrMalformedResponse is returned when a model reply does not decode into
// exactly one supported intent.
var ErrMalformedResponse = errors.New("malformed model response")

// ErrNoCompletion is returned when a provider answers without any text.
var ErrNoCompletion = errors.New("no completion returned")

// FailureKind classifies a failed model round trip.
type FailureKind int

const (
	// Unavailable covers network errors, timeouts and unexpected statuses.
	Unavailable FailureKind = iota
	// QuotaExceeded means the credential hit a rate, credit or billing limit.
	QuotaExceeded
	// MalformedResponse means the reply arrived but could not be decoded.
	MalformedResponse
)

func (k FailureKind) String() string {
	switch k {
	case QuotaExceeded:
		return "quota_exceeded"
	case MalformedResponse:
		return "malformed_response"
	default:
		return "unavailable"
	}
}

// ProviderError is the only error type the model interpreter returns.
type ProviderError struct {
	Kind FailureKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx answer from an OpenAI-compatible endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// quotaMarkers are lowercase fragments providers use for quota and billing failures.
var quotaMarkers = []string{
	"quota",
	"resource_exhausted",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"too many requests",
	"insufficient credits",
	"insufficient_quota",
	"billing",
}

// ClassifyProviderError maps a transport or decode failure onto a FailureKind.
// Already classified errors keep their kind.
func ClassifyProviderError(err error) FailureKind {
	if err == nil {
		return Unavailable
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, ErrMalformedResponse) {
		return MalformedResponse
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusPaymentRequired:
			return QuotaExceeded
		}
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) && isGenaiQuota(gErr) {
		return QuotaExceeded
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil && isGenaiQuota(*gErrPtr) {
		return QuotaExceeded
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return QuotaExceeded
		}
	}
	return Unavailable
}

func isGenaiQuota(e genai.APIError) bool {
	return e.Code == http.StatusTooManyRequests || strings.EqualFold(e.Status, "RESOURCE_EXHAUSTED")
}

// classify wraps err as a ProviderError.
func classify(err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Kind: ClassifyProviderError(err), Err: err}
}
