// Package config loads and validates application configuration from
// environment variables and optional config files.
package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
}

// ServerConfig contains process-level settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// PipelineConfig contains the promotion pipeline's tuning knobs.
type PipelineConfig struct {
	// BatchSize bounds how many items are fetched per stage per batch.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0,lte=1000"`

	// RetryAttempts bounds in-process retries of a single item.
	RetryAttempts int `mapstructure:"retry_attempts" validate:"required,gt=0,lte=10"`

	// AutoApprovalEnabled bypasses manual-review routing. Staging/test
	// override; keep off in production.
	AutoApprovalEnabled bool `mapstructure:"auto_approval_enabled"`

	// BatchInterval is how often the worker loop invokes ProcessBatch.
	BatchInterval time.Duration `mapstructure:"batch_interval" validate:"required"`
}
