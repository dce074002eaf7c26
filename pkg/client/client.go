// Package client provides the Go client for the Ouroboros Compute API.
//
// A Client translates typed method calls into HTTP requests against a fixed
// base URL, applies a retry policy to transient failures, decodes JSON
// responses, and surfaces both transport and application errors as a single
// *APIError value distinguished by class and status code.
//
// Retry behavior: network errors, timeouts, 5xx responses, and 429
// rate-limit responses are retried with exponential backoff up to the
// configured maximum; all other 4xx responses fail immediately. A 429
// response carrying a Retry-After header overrides the computed delay.
//
// The client keeps no cache: every query method performs a fresh request.
// A Client is safe for concurrent use; the underlying http.Client owns
// connection pooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultBaseURL is the default service address.
	DefaultBaseURL = "http://localhost:5001"

	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retries after the initial
	// attempt.
	DefaultMaxRetries = 3
)

// Recorder receives per-request observations. pkg/telemetry provides a
// Prometheus-backed implementation.
type Recorder interface {
	RecordRequest(method, path string, status int, retries int, duration time.Duration)
}

// config is the assembled client configuration. Immutable after New.
type config struct {
	BaseURL    string        `validate:"required,url"`
	Timeout    time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"gt=0"`
	Retry      RetryPolicy
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Recorder   Recorder
	Tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*config) error

// WithTimeout sets the per-request timeout. The value must be positive.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.Timeout = d
		return nil
	}
}

// WithMaxRetries sets the maximum number of retries after the initial
// attempt. The value must be positive.
func WithMaxRetries(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("max retries must be positive, got %d", n)
		}
		c.MaxRetries = n
		return nil
	}
}

// WithRetryPolicy overrides the backoff policy used between retries.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *config) error {
		if err := p.validate(); err != nil {
			return err
		}
		c.Retry = p
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client. The client's Timeout
// field is left untouched; the per-request timeout still applies via
// context deadlines.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.HTTPClient = hc
		return nil
	}
}

// WithLogger sets the logger used for debug-level request logging. The
// default logger discards everything; the library never logs on the
// caller's behalf unless asked to.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.Logger = logger
		return nil
	}
}

// WithRecorder installs a request metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *config) error {
		c.Recorder = r
		return nil
	}
}

// WithTracer installs an OpenTelemetry tracer; each request becomes a span.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) error {
		c.Tracer = t
		return nil
	}
}

// Client is an HTTP client for the Ouroboros Compute API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	retry      RetryPolicy
	httpClient *http.Client
	log        zerolog.Logger
	recorder   Recorder
	tracer     trace.Tracer

	// Injectable for deterministic wait-loop tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client for the service at baseURL. An empty baseURL selects
// DefaultBaseURL. Invalid options and malformed base URLs are rejected.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cfg := &config{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		Retry:      DefaultRetryPolicy(),
		Logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid client option: %w", err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be a valid http or https URL: %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("ouroboros-client")
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retry:      cfg.Retry,
		httpClient: httpClient,
		log:        cfg.Logger,
		recorder:   cfg.Recorder,
		tracer:     tracer,
		now:        time.Now,
		sleep:      sleepContext,
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do executes one API call with retries and decodes the JSON response body
// into out (which may be nil to discard the body).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &APIError{
				Class:   ErrorClassPermanent,
				Message: fmt.Sprintf("encode request body: %v", err),
				Err:     err,
			}
		}
		payload = encoded
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("ouroboros.%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		))
	defer span.End()

	start := c.now()
	bo := c.retry.newBackOff()

	var lastErr *APIError
	retries := 0
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := bo.NextBackOff()
			if lastErr != nil && lastErr.RetryAfter > 0 {
				delay = lastErr.RetryAfter
			}
			c.log.Debug().
				Str("method", method).
				Str("path", path).
				Int("attempt", attempt).
				Int("max_retries", c.maxRetries).
				Dur("delay", delay).
				Msg("retrying request")
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = newTransportError(err)
				break
			}
			retries++
		}

		status, apiErr := c.once(ctx, method, path, query, payload, out)
		if apiErr == nil {
			span.SetAttributes(attribute.Int("http.status_code", status))
			c.record(method, path, status, retries, c.now().Sub(start))
			return nil
		}

		lastErr = apiErr
		if !apiErr.Retryable() {
			break
		}
	}

	span.SetStatus(codes.Error, lastErr.Message)
	if lastErr.StatusCode > 0 {
		span.SetAttributes(attribute.Int("http.status_code", lastErr.StatusCode))
	}
	c.record(method, path, lastErr.StatusCode, retries, c.now().Sub(start))
	return lastErr
}

// once performs a single HTTP exchange.
func (c *Client) once(ctx context.Context, method, path string, query url.Values, payload []byte, out any) (int, *APIError) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return 0, &APIError{
			Class:   ErrorClassPermanent,
			Message: fmt.Sprintf("build request: %v", err),
			Err:     err,
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, newTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, newTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newStatusError(resp.StatusCode, data)
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return resp.StatusCode, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &APIError{
				Class:      ErrorClassPermanent,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("decode response body: %v", err),
				Err:        err,
			}
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) record(method, path string, status, retries int, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordRequest(method, path, status, retries, d)
	}
}

// parseRetryAfter parses a Retry-After header given in seconds. HTTP-date
// values are ignored; the backoff schedule covers those.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// get issues a GET request and decodes the response into T.
func get[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post issues a POST request with a JSON body and decodes the response into T.
func post[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
