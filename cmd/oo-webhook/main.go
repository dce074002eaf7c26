// oo-webhook is a relay daemon. It polls the compute API for executions
// that reached a terminal status and POSTs one JSON notification per
// execution to a configured endpoint. It can also watch a spool directory
// for payload files dropped by other tools and relay them as-is.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ouroboros-ai/ouroboros-go/pkg/client"
	"github.com/ouroboros-ai/ouroboros-go/pkg/config"
	"github.com/ouroboros-ai/ouroboros-go/pkg/telemetry"
	"github.com/ouroboros-ai/ouroboros-go/pkg/webhook"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file path")
		targetURL  = flag.String("target-url", "", "webhook target URL (overrides config)")
		apiURL     = flag.String("api-url", "", "base URL of the compute API (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("oo-webhook: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *targetURL != "" {
		cfg.Webhook.TargetURL = *targetURL
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}

	tel, err := telemetry.NewTelemetry(&telemetry.Config{
		ServiceName:    "oo-webhook",
		ServiceVersion: Version,
		Environment:    "dev",
		Logging: telemetry.LoggingConfig{
			Level:  cfg.Telemetry.LogLevel,
			Format: "json",
			Output: "stderr",
		},
		Tracing: telemetry.TracingConfig{
			Enabled:       cfg.Telemetry.TracingEnabled,
			Exporter:      cfg.Telemetry.TraceExporter,
			Endpoint:      cfg.Telemetry.TraceEndpoint,
			Insecure:      true,
			SamplingRate:  cfg.Telemetry.SampleRate,
			ExportTimeout: 30 * time.Second,
		},
		Metrics: telemetry.MetricsConfig{
			Enabled:   cfg.Telemetry.MetricsEnabled,
			Namespace: "ouroboros",
			Addr:      cfg.Telemetry.MetricsAddr,
		},
	})
	if err != nil {
		os.Stderr.WriteString("oo-webhook: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := tel.Logger.NewComponentLogger("webhook")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx, cfg, tel, logger); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("webhook relay failed")
		shutdownTelemetry(tel, logger)
		os.Exit(1)
	}
	shutdownTelemetry(tel, logger)
}

func run(ctx context.Context, cfg config.Config, tel *telemetry.Telemetry, logger *telemetry.Logger) error {
	apiClient, err := client.New(cfg.API.BaseURL,
		client.WithTimeout(cfg.API.Timeout.Std()),
		client.WithMaxRetries(cfg.API.MaxRetries),
		client.WithLogger(logger.Zerolog()),
		client.WithRecorder(tel.Metrics),
		client.WithTracer(tel.Tracer.Tracer()),
	)
	if err != nil {
		return err
	}

	sender, err := webhook.NewSender(webhook.Config{
		TargetURL:    cfg.Webhook.TargetURL,
		PollInterval: cfg.Webhook.PollInterval.Std(),
		SpoolDir:     cfg.Webhook.SpoolDir,
		MaxRetries:   cfg.Webhook.MaxDeliveryRetries,
	}, apiClient, logger.Zerolog(), tel.Metrics)
	if err != nil {
		return err
	}

	if err := tel.Metrics.StartServer(); err != nil {
		return err
	}

	logger.Infof("oo-webhook %s starting (commit %s, built %s)", Version, Commit, BuildDate)
	return sender.Run(ctx)
}

// shutdownTelemetry flushes exporters with a short grace period.
func shutdownTelemetry(tel *telemetry.Telemetry, logger *telemetry.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("telemetry shutdown failed")
	}
}
