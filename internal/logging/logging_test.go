package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"contractlens/internal/config"
	"contractlens/internal/logging"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := logging.New(config.LogConfig{Level: tt.level, Format: "json"})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNew_Console(t *testing.T) {
	logger, err := logging.New(config.LogConfig{Level: "info", Format: "console"})

	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logging.New(config.LogConfig{Level: "loud"})

	assert.ErrorContains(t, err, "invalid log level")
}
