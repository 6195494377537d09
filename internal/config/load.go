package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config
// files. Environment variables take precedence over values from config
// files. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults. database.url has no usable default, but registering the
	// key is what lets AutomaticEnv feed it through Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("pipeline.batch_size", 50)
	v.SetDefault("pipeline.retry_attempts", 3)
	v.SetDefault("pipeline.auto_approval_enabled", false)
	v.SetDefault("pipeline.batch_interval", time.Minute)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment variables still apply.
	}

	// Environment variables with the PIPELINE_ prefix, e.g.
	// PIPELINE_DATABASE_URL maps to database.url.
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
