package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oo.log")
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.NewComponentLogger("relay").Error("relay failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, `"message":"warn line"`)
	assert.Contains(t, out, `"component":"relay"`)
	assert.Contains(t, out, `"level":"error"`)
}

func TestNewLoggerRejectsUnwritableFile(t *testing.T) {
	_, err := NewLogger(LoggingConfig{Level: "info", Output: filepath.Join(t.TempDir(), "missing", "oo.log")})
	assert.Error(t, err)
}

func TestLoggerContextRoundTrip(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "info", Output: "stderr"})
	require.NoError(t, err)

	ctx := logger.WithContext(context.Background())
	assert.Same(t, logger, FromContext(ctx))

	// Contexts without a logger still yield a usable one.
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), "level %q", tt.in)
	}
}
