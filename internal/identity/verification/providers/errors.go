package providers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory is the normalized failure taxonomy for provider errors.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorProviderOutage ErrorCategory = "provider_outage"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorInternal       ErrorCategory = "internal"
)

// ProviderError wraps a provider failure with a category so callers can decide
// on retries and bucket fail-fast without parsing messages.
type ProviderError struct {
	Category     ErrorCategory
	ProviderType string
	Message      string
	Underlying   error
	Retryable    bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderType, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderType, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError sets Retryable for timeouts, outages and rate limits.
func NewProviderError(category ErrorCategory, providerType, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:     category,
		ProviderType: providerType,
		Message:      message,
		Underlying:   underlying,
		Retryable:    retryable,
	}
}

func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// TimeoutMessage is the marker a provider puts into its errors when an
// upstream call timed out. The orchestrator stops the platform on seeing it.
func TimeoutMessage(providerType string) string {
	return fmt.Sprintf("Request timeout while verifying %s.", providerType)
}

// IsTimeout reports whether a verification outcome signals a provider timeout.
func IsTimeout(providerType, joinedErrors string, err error) bool {
	if err != nil && GetCategory(err) == ErrorTimeout {
		return true
	}
	return strings.Contains(joinedErrors, TimeoutMessage(providerType))
}

var ErrProviderNotFound = errors.New("provider not found")
