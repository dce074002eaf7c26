package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the client, CLI, and relay.
// It implements the client library's Recorder interface.
type Metrics struct {
	config MetricsConfig

	// API request metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec

	// Execution metrics
	executionsStarted   *prometheus.CounterVec
	executionsCompleted *prometheus.CounterVec

	// Webhook relay metrics
	webhookDeliveries *prometheus.CounterVec

	registry *prometheus.Registry
	server   *http.Server
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests issued",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Duration of API requests including retries",
				Buckets:   buckets,
			},
			[]string{"method", "path"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_retries_total",
				Help:      "Total number of API request retries",
			},
			[]string{"method", "path"},
		),
		executionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_started_total",
				Help:      "Total number of executions started through the CLI",
			},
			[]string{"kind"},
		),
		executionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_completed_total",
				Help:      "Total number of waited-on executions by terminal status",
			},
			[]string{"status"},
		),
		webhookDeliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_deliveries_total",
				Help:      "Total number of webhook delivery attempts",
			},
			[]string{"outcome"},
		),
	}

	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.retriesTotal,
		m.executionsStarted,
		m.executionsCompleted,
		m.webhookDeliveries,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// RecordRequest implements the client Recorder interface.
func (m *Metrics) RecordRequest(method, path string, status, retries int, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if retries > 0 {
		m.retriesTotal.WithLabelValues(method, path).Add(float64(retries))
	}
}

// RecordExecutionStarted counts an execution started through the CLI.
func (m *Metrics) RecordExecutionStarted(kind string) {
	if m.registry == nil {
		return
	}
	m.executionsStarted.WithLabelValues(kind).Inc()
}

// RecordExecutionCompleted counts a waited-on execution reaching a terminal
// status.
func (m *Metrics) RecordExecutionCompleted(status string) {
	if m.registry == nil {
		return
	}
	m.executionsCompleted.WithLabelValues(status).Inc()
}

// RecordWebhookDelivery counts a webhook delivery attempt by outcome
// (delivered, failed).
func (m *Metrics) RecordWebhookDelivery(outcome string) {
	if m.registry == nil {
		return
	}
	m.webhookDeliveries.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server on the configured address.
func (m *Metrics) StartServer() error {
	if m.registry == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.server = &http.Server{
		Addr:              m.config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Nothing sensible to do here; the caller's logger owns output.
			_ = err
		}
	}()
	return nil
}

// Shutdown stops the metrics server.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
