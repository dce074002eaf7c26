package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:5001", cfg.API.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout.Std())
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.True(t, cfg.History.Enabled)
	assert.NotEmpty(t, cfg.History.Path)
	assert.Equal(t, 10*time.Second, cfg.Webhook.PollInterval.Std())
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5001", cfg.API.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://api.internal:8080
  timeout: 2m
  max_retries: 5
history:
  enabled: false
webhook:
  target_url: http://hooks.internal/ouroboros
  poll_interval: 30s
  max_delivery_retries: 2
telemetry:
  log_level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:8080", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.API.Timeout.Std())
	assert.Equal(t, 5, cfg.API.MaxRetries)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "http://hooks.internal/ouroboros", cfg.Webhook.TargetURL)
	assert.Equal(t, 30*time.Second, cfg.Webhook.PollInterval.Std())
	assert.Equal(t, 2, cfg.Webhook.MaxDeliveryRetries)
	assert.Equal(t, "debug", cfg.Telemetry.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://from-file:5001\n"), 0o600))

	t.Setenv(EnvAPIURL, "http://from-env:5001")
	t.Setenv(EnvTimeout, "90s")
	t.Setenv(EnvMaxRetries, "7")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:5001", cfg.API.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.API.Timeout.Std())
	assert.Equal(t, 7, cfg.API.MaxRetries)
	assert.Equal(t, "warn", cfg.Telemetry.LogLevel)
}

func TestInvalidEnvValues(t *testing.T) {
	t.Setenv(EnvTimeout, "not-a-duration")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidationRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: not-a-url
`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidationRejectsNonPositiveValues(t *testing.T) {
	for name, body := range map[string]string{
		"zero timeout":       "api:\n  base_url: http://localhost:5001\n  timeout: 0s\n  max_retries: 3\n",
		"negative retries":   "api:\n  base_url: http://localhost:5001\n  timeout: 60s\n  max_retries: -1\n",
		"zero poll interval": "webhook:\n  poll_interval: 0s\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
