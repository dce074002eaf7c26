package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		class  ErrorClass
	}{
		{http.StatusBadRequest, ErrorClassValidation},
		{http.StatusUnauthorized, ErrorClassPermanent},
		{http.StatusForbidden, ErrorClassPermanent},
		{http.StatusNotFound, ErrorClassNotFound},
		{http.StatusConflict, ErrorClassConflict},
		{http.StatusUnprocessableEntity, ErrorClassValidation},
		{http.StatusTooManyRequests, ErrorClassThrottled},
		{http.StatusInternalServerError, ErrorClassTransient},
		{http.StatusBadGateway, ErrorClassTransient},
		{http.StatusServiceUnavailable, ErrorClassTransient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.class, classifyStatus(tt.status), "status %d", tt.status)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, (&APIError{Class: ErrorClassThrottled}).Retryable())
	assert.True(t, (&APIError{Class: ErrorClassTransient}).Retryable())
	assert.False(t, (&APIError{Class: ErrorClassValidation}).Retryable())
	assert.False(t, (&APIError{Class: ErrorClassNotFound}).Retryable())
	assert.False(t, (&APIError{Class: ErrorClassConflict}).Retryable())
	assert.False(t, (&APIError{Class: ErrorClassPermanent}).Retryable())
}

func TestAPIErrorString(t *testing.T) {
	withStatus := &APIError{Class: ErrorClassNotFound, StatusCode: 404, Message: "gone"}
	assert.Equal(t, "api error [404 not_found]: gone", withStatus.Error())

	network := &APIError{Class: ErrorClassTransient, Message: "network error: connection refused"}
	assert.Equal(t, "api error [transient]: network error: connection refused", network.Error())
}

func TestAPIErrorIsMatchesByClass(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &APIError{
		Class: ErrorClassThrottled,
		Code:  "RATE_LIMITED",
	})

	assert.True(t, errors.Is(err, &APIError{Class: ErrorClassThrottled}))
	assert.True(t, errors.Is(err, &APIError{Class: ErrorClassThrottled, Code: "RATE_LIMITED"}))
	assert.False(t, errors.Is(err, &APIError{Class: ErrorClassThrottled, Code: "OTHER"}))
	assert.False(t, errors.Is(err, &APIError{Class: ErrorClassTransient}))
}

func TestNewStatusErrorFallbacks(t *testing.T) {
	flat := newStatusError(500, []byte(`{"message": "engine crashed"}`))
	assert.Equal(t, "engine crashed", flat.Message)

	opaque := newStatusError(500, []byte(`<html>boom</html>`))
	assert.Equal(t, "request failed with status 500", opaque.Message)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 12*time.Second, parseRetryAfter("12"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("-3"))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2026 07:28:00 GMT"))
}
