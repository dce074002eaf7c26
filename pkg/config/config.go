// Package config loads configuration for the oo CLI and the webhook relay.
//
// Configuration is resolved in three layers, later layers overriding
// earlier ones: an optional YAML config file, a .env file in the working
// directory, and OO_* environment variables. The resolved struct is
// validated before use; there is no process-global configuration state, so
// multiple clients with different targets can coexist.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that additionally unmarshals from YAML
// strings in time.ParseDuration form ("30s", "2m"). Plain integers are
// read as nanoseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Environment variable names recognized as overrides.
const (
	EnvAPIURL       = "OO_API_URL"
	EnvTimeout      = "OO_TIMEOUT"
	EnvMaxRetries   = "OO_MAX_RETRIES"
	EnvHistoryPath  = "OO_HISTORY_PATH"
	EnvWebhookURL   = "OO_WEBHOOK_URL"
	EnvWebhookSpool = "OO_WEBHOOK_SPOOL_DIR"
	EnvLogLevel     = "OO_LOG_LEVEL"
)

// Config is the resolved configuration for the CLI and webhook relay.
type Config struct {
	// API configures the connection to the compute service.
	API APIConfig `yaml:"api"`

	// History configures the local run journal.
	History HistoryConfig `yaml:"history"`

	// Webhook configures the webhook relay daemon.
	Webhook WebhookConfig `yaml:"webhook"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig configures the API client.
type APIConfig struct {
	BaseURL    string   `yaml:"base_url" validate:"required,url"`
	Timeout    Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries int      `yaml:"max_retries" validate:"gt=0"`
}

// HistoryConfig configures the local SQLite run journal.
type HistoryConfig struct {
	// Enabled controls whether CLI runs are recorded locally.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database path.
	Path string `yaml:"path"`
}

// WebhookConfig configures the webhook relay.
type WebhookConfig struct {
	// TargetURL is where lifecycle payloads are POSTed.
	TargetURL string `yaml:"target_url" validate:"omitempty,url"`

	// PollInterval is the delay between execution listing polls.
	PollInterval Duration `yaml:"poll_interval" validate:"gt=0"`

	// SpoolDir, when set, is watched for dropped *.json payload files
	// which are relayed as-is.
	SpoolDir string `yaml:"spool_dir"`

	// MaxDeliveryRetries bounds delivery retries per payload.
	MaxDeliveryRetries int `yaml:"max_delivery_retries" validate:"gt=0"`
}

// TelemetryConfig configures observability for the CLI and relay.
type TelemetryConfig struct {
	LogLevel       string  `yaml:"log_level"`
	MetricsEnabled bool    `yaml:"metrics_enabled"`
	MetricsAddr    string  `yaml:"metrics_addr"`
	TracingEnabled bool    `yaml:"tracing_enabled"`
	TraceExporter  string  `yaml:"trace_exporter"` // otlp, stdout, none
	TraceEndpoint  string  `yaml:"trace_endpoint"`
	SampleRate     float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// Default returns the baseline configuration before file and environment
// layers are applied.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "http://localhost:5001",
			Timeout:    Duration(60 * time.Second),
			MaxRetries: 3,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Webhook: WebhookConfig{
			PollInterval:       Duration(10 * time.Second),
			MaxDeliveryRetries: 3,
		},
		Telemetry: TelemetryConfig{
			LogLevel:      "info",
			MetricsAddr:   ":9091",
			TraceExporter: "none",
			SampleRate:    1.0,
		},
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "oo-history.db"
	}
	return home + "/.ouroboros/history.db"
}

// Load resolves the configuration. path may be empty to skip the file
// layer. A .env file in the working directory is loaded into the process
// environment first, matching how the service's own deployment is driven.
func Load(path string) (Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides config fields from OO_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		cfg.API.Timeout = Duration(d)
	}
	if v := os.Getenv(EnvMaxRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxRetries, err)
		}
		cfg.API.MaxRetries = n
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv(EnvWebhookURL); v != "" {
		cfg.Webhook.TargetURL = v
	}
	if v := os.Getenv(EnvWebhookSpool); v != "" {
		cfg.Webhook.SpoolDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Telemetry.LogLevel = v
	}
	return nil
}
