package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/content-pipeline/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "debug level", logLevel: "debug"},
		{name: "info level", logLevel: "info"},
		{name: "warn level", logLevel: "warn"},
		{name: "error level", logLevel: "error"},
		{name: "case insensitive", logLevel: "INFO"},
		{name: "invalid level falls back to info", logLevel: "verbose"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.Setup(tt.logLevel)
			require.NoError(t, err)
			require.NotNil(t, log)
		})
	}
}

func TestWithLoggerAndFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	custom := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logger.WithLogger(context.Background(), custom)
	assert.Same(t, custom, logger.FromContext(ctx))

	// A bare context falls back to the default logger.
	assert.NotNil(t, logger.FromContext(context.Background()))
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	custom := slog.New(slog.NewJSONHandler(&buf, nil))
	fallback := slog.New(slog.NewJSONHandler(&buf, nil))

	tests := []struct {
		name     string
		ctx      context.Context
		expected *slog.Logger
	}{
		{
			name:     "logger present in context",
			ctx:      logger.WithLogger(context.Background(), custom),
			expected: custom,
		},
		{
			name:     "logger absent uses fallback",
			ctx:      context.Background(),
			expected: fallback,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := logger.FromContextOrDefault(tt.ctx, fallback)
			assert.Same(t, tt.expected, got)
		})
	}
}
