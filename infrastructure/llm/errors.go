package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the client and providers.
var (
	// ErrEmptyAPIKey indicates a required API key was not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates the provider returned an empty body.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrNoResponseChoice indicates the response contained no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType categorizes provider errors for standardized handling such as
// retryability decisions.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuthentication
	ErrorTypeRateLimit
	ErrorTypeBadRequest
	ErrorTypeNotFound
	ErrorTypeServerError
	ErrorTypeNetwork
	ErrorTypeTimeout
)

// ProviderError normalizes provider-specific failures into a common shape
// carrying the classified type and HTTP status when available.
type ProviderError struct {
	Type         ErrorType
	Provider     string
	StatusCode   int
	Message      string
	WrappedError error
}

// Error satisfies the error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether a request failing with this error is worth
// retrying. Rate limits, server errors, and network problems are transient.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// NewProviderError builds a classified ProviderError.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// ErrorClassifier maps raw provider failures onto ProviderError values.
type ErrorClassifier struct {
	Provider string
}

// ClassifyHTTPError classifies an error by its HTTP status code.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case statusCode == 401 || statusCode == 403:
		errType = ErrorTypeAuthentication
		message = ec.Provider + " authentication failed"
	case statusCode == 429:
		errType = ErrorTypeRateLimit
		message = ec.Provider + " rate limit exceeded"
	case statusCode == 400:
		errType = ErrorTypeBadRequest
	case statusCode == 404:
		errType = ErrorTypeNotFound
	case statusCode >= 500:
		errType = ErrorTypeServerError
	case statusCode >= 400:
		errType = ErrorTypeBadRequest
	default:
		errType = ErrorTypeUnknown
	}
	return NewProviderError(ec.Provider, errType, statusCode, message, err)
}

// ClassifyContextError classifies context cancellation and deadline errors.
func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeNetwork, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, "", err)
	}
}
