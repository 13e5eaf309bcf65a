package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidRequest indicates the request document was rejected as malformed
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized indicates a missing or unknown API key
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the API key is invalid or not yet active
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the endpoint does not exist
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the API key exceeded its quota
	ErrRateLimited = errors.New("rate limited")

	// ErrServerError indicates a server-side error
	ErrServerError = errors.New("server error")

	// ErrTimeout indicates the request timed out
	ErrTimeout = errors.New("request timed out")

	// ErrMissingAPIKey indicates no API key is configured
	ErrMissingAPIKey = errors.New("api key not configured")
)

// APIError represents a non-200 answer from the OJP service
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error %d: %s (endpoint: %s)", e.StatusCode, e.Status, e.Endpoint)
}

// Is implements errors.Is for APIError
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServerError:
		return e.StatusCode >= 500
	}
	return false
}

// Transient reports whether retrying the same request may succeed
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Hint returns an operator-facing explanation for well known failures
func (e *APIError) Hint() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "API key missing or unknown"
	case http.StatusForbidden:
		return "API key invalid or not yet active"
	case http.StatusTooManyRequests:
		return "API quota exceeded, increase the fetch interval"
	}
	return ""
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, status, endpoint string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Endpoint:   endpoint,
	}
}

// NewAPIErrorWithMessage creates a new API error with a custom message
func NewAPIErrorWithMessage(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// HintFor returns the operator hint carried by err, if any
func HintFor(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Hint()
	}
	return ""
}
