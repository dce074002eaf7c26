package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/ouroboros-ai/ouroboros-go/pkg/api"
)

// newTestClient builds a client against the given test server with instant
// retries, so retry-path tests run in microseconds.
func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := New(baseURL, opts...)
	require.NoError(t, err)
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestNewDefaults(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, DefaultMaxRetries, c.maxRetries)
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	c, err := New("http://example.com:5001/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:5001", c.BaseURL())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		opts    []Option
	}{
		{name: "zero timeout", opts: []Option{WithTimeout(0)}},
		{name: "negative timeout", opts: []Option{WithTimeout(-time.Second)}},
		{name: "zero retries", opts: []Option{WithMaxRetries(0)}},
		{name: "negative retries", opts: []Option{WithMaxRetries(-1)}},
		{name: "bad scheme", baseURL: "ftp://example.com"},
		{name: "no host", baseURL: "http://"},
		{name: "not a url", baseURL: "::bad::"},
		{name: "nil http client", opts: []Option{WithHTTPClient(nil)}},
		{name: "bad retry policy", opts: []Option{WithRetryPolicy(RetryPolicy{})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.baseURL, tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestListWorkflowsNoFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/workflows", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"workflows": [
				{"slug": "business-plan-optimization", "name": "Business Plan Optimization", "step_count": 4},
				{"slug": "sample_workflow", "name": "Sample Workflow"}
			],
			"total": 2
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	list, err := c.ListWorkflows(context.Background(), ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Workflows, 2)
	assert.Equal(t, "business-plan-optimization", list.Workflows[0].Slug)
	assert.Equal(t, 4, list.Workflows[0].StepCount)
}

func TestListWorkflowsQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "finance", q.Get("category"))
		assert.Equal(t, "a,b", q.Get("tags"))
		assert.Equal(t, "optimization", q.Get("search"))
		assert.Equal(t, "active", q.Get("status"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "20", q.Get("offset"))
		_, _ = w.Write([]byte(`{"workflows": [], "total": 0}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.ListWorkflows(context.Background(), ListWorkflowsOptions{
		Category: "finance",
		Tags:     []string{"a", "b"},
		Search:   "optimization",
		Status:   "active",
		Limit:    10,
		Offset:   20,
	})
	require.NoError(t, err)
}

func TestExecuteWorkflow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workflows/business-plan-optimization/execute", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body api.ExecuteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "retail", body.Inputs["business_type"])
		assert.Equal(t, float64(50000), body.Inputs["budget"])
		assert.NotNil(t, body.Config)
		assert.NotNil(t, body.Metadata)

		_, _ = w.Write([]byte(`{"execution_id": "wfexec_abc123", "status": "initializing"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.ExecuteWorkflow(context.Background(), "business-plan-optimization", api.ExecuteRequest{
		Inputs: map[string]any{"business_type": "retail", "budget": 50000},
	})
	require.NoError(t, err)
	assert.Equal(t, "wfexec_abc123", resp.ExecutionID)
	assert.True(t, api.IsExecutionID(resp.ExecutionID))
	assert.Equal(t, api.ExecutionStatusInitializing, resp.Status)
}

func TestErrorEnvelopeDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{
			"error": {
				"type": "not_found",
				"message": "workflow nope does not exist",
				"code": "WORKFLOW_NOT_FOUND",
				"request_id": "req_42",
				"details": {"slug": "nope"}
			}
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetWorkflow(context.Background(), "nope")
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorClassNotFound, apiErr.Class)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "workflow nope does not exist", apiErr.Message)
	assert.Equal(t, "WORKFLOW_NOT_FOUND", apiErr.Code)
	assert.Equal(t, "req_42", apiErr.RequestID)
	assert.Equal(t, "nope", apiErr.Details["slug"])
	assert.True(t, IsNotFound(err))
}

func TestNonEnvelopeErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithMaxRetries(1))
	_, err := c.GetWorkflow(context.Background(), "x")
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorClassTransient, apiErr.Class)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "502")
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"healthy": true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	health, err := c.ServiceHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhaustedSurfacesLastError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithMaxRetries(2))
	_, err := c.GetWorkflow(context.Background(), "x")
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorClassTransient, apiErr.Class)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"message": "no such workflow"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetWorkflow(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestNoRetryOnClientErrors(t *testing.T) {
	statuses := map[int]ErrorClass{
		http.StatusBadRequest:          ErrorClassValidation,
		http.StatusUnauthorized:        ErrorClassPermanent,
		http.StatusForbidden:           ErrorClassPermanent,
		http.StatusConflict:            ErrorClassConflict,
		http.StatusUnprocessableEntity: ErrorClassValidation,
	}
	for status, class := range statuses {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		c := newTestClient(t, server.URL)
		_, err := c.GetWorkflow(context.Background(), "x")
		require.Error(t, err, "status %d", status)

		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, class, apiErr.Class, "status %d", status)
		assert.Equal(t, int32(1), calls.Load(), "status %d must not be retried", status)
		server.Close()
	}
}

func TestRetriesRateLimitHonoringRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"workflows": [], "total": 0}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := c.ListWorkflows(context.Background(), ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, slept, 1)
	assert.Equal(t, 7*time.Second, slept[0])
}

func TestRetriesNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	c := newTestClient(t, server.URL, WithMaxRetries(2))
	_, err := c.GetWorkflow(context.Background(), "x")
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorClassTransient, apiErr.Class)
	assert.Zero(t, apiErr.StatusCode)
	assert.Error(t, apiErr.Unwrap())
}

func TestCancelExecution(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/executions/wfexec_1/cancel", r.URL.Path)

		var body api.CancelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "operator request", body.Reason)
		assert.True(t, body.Graceful)

		_, _ = w.Write([]byte(`{"id": "wfexec_1", "status": "cancelled", "cancelled": true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.CancelExecution(context.Background(), "wfexec_1", "operator request")
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.Equal(t, api.ExecutionStatusCancelled, resp.Status)
}

func TestRecorderObservesRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"workflows": [], "total": 0}`))
	}))
	defer server.Close()

	rec := &captureRecorder{}
	c := newTestClient(t, server.URL, WithRecorder(rec))
	_, err := c.ListWorkflows(context.Background(), ListWorkflowsOptions{})
	require.NoError(t, err)

	require.Len(t, rec.observations, 1)
	obs := rec.observations[0]
	assert.Equal(t, http.MethodGet, obs.method)
	assert.Equal(t, "/workflows", obs.path)
	assert.Equal(t, http.StatusOK, obs.status)
	assert.Equal(t, 1, obs.retries)
}

type captureRecorder struct {
	observations []observation
}

type observation struct {
	method  string
	path    string
	status  int
	retries int
}

func (r *captureRecorder) RecordRequest(method, path string, status, retries int, _ time.Duration) {
	r.observations = append(r.observations, observation{method, path, status, retries})
}

func TestTracerSpanPerRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"workflows": [], "total": 0}`))
	}))
	defer server.Close()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	c := newTestClient(t, server.URL, WithTracer(provider.Tracer("client-test")))
	_, err := c.ListWorkflows(context.Background(), ListWorkflowsOptions{})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "ouroboros.GET /workflows", span.Name)
	assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	assert.Contains(t, span.Attributes, attribute.String("http.method", "GET"))
	assert.Contains(t, span.Attributes, attribute.String("http.route", "/workflows"))
	assert.Contains(t, span.Attributes, attribute.Int("http.status_code", http.StatusOK))
}

func TestTracerMarksFailedRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"type": "NotFoundError", "message": "workflow not found"}}`))
	}))
	defer server.Close()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	c := newTestClient(t, server.URL, WithTracer(provider.Tracer("client-test")))
	_, err := c.GetWorkflow(context.Background(), "missing")
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, otelcodes.Error, span.Status.Code)
	assert.Contains(t, span.Attributes, attribute.Int("http.status_code", http.StatusNotFound))
}

func TestCheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	assert.True(t, c.CheckHealth(context.Background()))
}

func TestCheckHealthUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := newTestClient(t, server.URL, WithMaxRetries(1))
	assert.False(t, c.CheckHealth(context.Background()))
}
