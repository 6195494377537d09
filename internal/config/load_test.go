package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/content-pipeline/internal/config"
)

// Load reads the process environment, so these tests use t.Setenv and
// cannot run in parallel.

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PIPELINE_DATABASE_URL", "postgres://localhost:5432/pipeline")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 50, cfg.Pipeline.BatchSize)
	assert.Equal(t, 3, cfg.Pipeline.RetryAttempts)
	assert.False(t, cfg.Pipeline.AutoApprovalEnabled)
	assert.Equal(t, time.Minute, cfg.Pipeline.BatchInterval)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PIPELINE_DATABASE_URL", "postgres://db.internal:5432/pipeline")
	t.Setenv("PIPELINE_SERVER_LOG_LEVEL", "debug")
	t.Setenv("PIPELINE_PIPELINE_BATCH_SIZE", "200")
	t.Setenv("PIPELINE_PIPELINE_RETRY_ATTEMPTS", "5")
	t.Setenv("PIPELINE_PIPELINE_AUTO_APPROVAL_ENABLED", "true")
	t.Setenv("PIPELINE_PIPELINE_BATCH_INTERVAL", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://db.internal:5432/pipeline", cfg.Database.URL)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 200, cfg.Pipeline.BatchSize)
	assert.Equal(t, 5, cfg.Pipeline.RetryAttempts)
	assert.True(t, cfg.Pipeline.AutoApprovalEnabled)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.BatchInterval)
}

func TestLoadRejectsMissingDatabaseURL(t *testing.T) {
	t.Setenv("PIPELINE_DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *config.Config {
		return &config.Config{
			Server:   config.ServerConfig{LogLevel: "info"},
			Database: config.DatabaseConfig{URL: "postgres://localhost:5432/pipeline"},
			Pipeline: config.PipelineConfig{
				BatchSize:     50,
				RetryAttempts: 3,
				BatchInterval: time.Minute,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		wantOK bool
	}{
		{name: "valid", mutate: func(*config.Config) {}, wantOK: true},
		{name: "bad log level", mutate: func(c *config.Config) { c.Server.LogLevel = "verbose" }},
		{name: "batch size too large", mutate: func(c *config.Config) { c.Pipeline.BatchSize = 10000 }},
		{name: "zero retry attempts", mutate: func(c *config.Config) { c.Pipeline.RetryAttempts = 0 }},
		{name: "url is not a url", mutate: func(c *config.Config) { c.Database.URL = "not a url" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(cfg)

			err := config.Validate(cfg)
			if tc.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
