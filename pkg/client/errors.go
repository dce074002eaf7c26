package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// ErrorClass represents the classification of an API error for retry and
// branching logic.
type ErrorClass string

const (
	// ErrorClassValidation indicates a request rejected for malformed or
	// out-of-range input (HTTP 400/422). Never retried.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassNotFound indicates the referenced resource does not exist
	// (HTTP 404). Never retried.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassConflict indicates a resource state conflict (HTTP 409).
	// Never retried.
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassThrottled indicates the request was rate limited (HTTP 429).
	// Retried with backoff, honoring a Retry-After header when present.
	ErrorClassThrottled ErrorClass = "throttled"

	// ErrorClassTransient indicates a 5xx response, connection failure, or
	// timeout. Retried with exponential backoff.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent indicates any other non-recoverable client error
	// (401, 403, and remaining 4xx statuses). Never retried.
	ErrorClassPermanent ErrorClass = "permanent"

	// ErrorClassWaitTimeout indicates WaitForExecution exceeded its maximum
	// wait duration before the execution reached a terminal status.
	ErrorClassWaitTimeout ErrorClass = "wait_timeout"

	// ErrorClassExecutionFailed indicates the polled execution reached a
	// terminal failed or cancelled status.
	ErrorClassExecutionFailed ErrorClass = "execution_failed"
)

// APIError is the single error kind raised by every client operation.
// Callers branch on Class and StatusCode rather than on distinct types.
type APIError struct {
	// Class is the error classification for retry and branching logic.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message, taken from the server's
	// error envelope when one is present.
	Message string `json:"message"`

	// StatusCode is the HTTP status code. Zero for network-level failures
	// that never produced a response.
	StatusCode int `json:"status_code,omitempty"`

	// Code is the server's machine-readable error code, if supplied.
	Code string `json:"code,omitempty"`

	// RequestID is the server-assigned request id, if supplied.
	RequestID string `json:"request_id,omitempty"`

	// Details contains the server error payload's details object.
	Details map[string]any `json:"details,omitempty"`

	// RetryAfter is the server-requested retry delay from a Retry-After
	// header, if one accompanied a 429 response.
	RetryAfter time.Duration `json:"-"`

	// Err is the underlying transport error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api error [%d %s]: %s", e.StatusCode, e.Class, e.Message)
	}
	return fmt.Sprintf("api error [%s]: %s", e.Class, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches APIErrors by class and code, so sentinel comparisons with
// errors.Is work across wrapped chains.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Class == t.Class && (t.Code == "" || e.Code == t.Code)
}

// Retryable reports whether the error belongs to the retryable set
// (throttled and transient failures).
func (e *APIError) Retryable() bool {
	return e.Class == ErrorClassThrottled || e.Class == ErrorClassTransient
}

// classifyStatus maps an HTTP status code to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrorClassValidation
	case status == http.StatusNotFound:
		return ErrorClassNotFound
	case status == http.StatusConflict:
		return ErrorClassConflict
	case status == http.StatusTooManyRequests:
		return ErrorClassThrottled
	case status >= 500:
		return ErrorClassTransient
	default:
		return ErrorClassPermanent
	}
}

// newStatusError builds an APIError from a non-2xx response body. The body
// is decoded against the standard error envelope; a body that is not an
// envelope still contributes a generic message.
func newStatusError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Class:      classifyStatus(status),
		StatusCode: status,
		Message:    fmt.Sprintf("request failed with status %d", status),
	}

	var envelope api.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
		}
		apiErr.Code = envelope.Error.Code
		apiErr.RequestID = envelope.Error.RequestID
		apiErr.Details = envelope.Error.Details
		return apiErr
	}

	// Some endpoints return a flat {"message": ...} body on errors.
	var flat struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Message != "" {
		apiErr.Message = flat.Message
	}
	return apiErr
}

// newTransportError wraps a network-level failure (connect error, timeout).
func newTransportError(err error) *APIError {
	return &APIError{
		Class:   ErrorClassTransient,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

// AsAPIError unwraps err into an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found API error.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Class == ErrorClassNotFound
}

// IsValidation reports whether err is a validation API error.
func IsValidation(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Class == ErrorClassValidation
}

// IsThrottled reports whether err is a rate-limit API error.
func IsThrottled(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Class == ErrorClassThrottled
}

// IsWaitTimeout reports whether err is a wait-timeout error from
// WaitForExecution.
func IsWaitTimeout(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Class == ErrorClassWaitTimeout
}

// IsExecutionFailed reports whether err carries a terminal failed or
// cancelled execution status.
func IsExecutionFailed(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Class == ErrorClassExecutionFailed
}
