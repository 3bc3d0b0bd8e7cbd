// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Google Cloud project used for both Secret Manager and Spanner calls.
	ProjectID string `env:"GCP_PROJECT_ID,required,notEmpty"`

	// Secret holding the Spanner connection descriptor
	// (projects/<p>/instances/<i>/databases/<d>).
	ConnectionSecretID string `env:"SPANNER_CONNECTION_STRING_SECRET_ID,required,notEmpty"`

	// Frontend bundle directory. Must contain index.html.
	StaticDir string `env:"STATIC_DIR" envDefault:"public"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// InitTimeout bounds secret resolution plus database connection.
	// Zero means no deadline.
	InitTimeout time.Duration `env:"INIT_TIMEOUT" envDefault:"0s"`

	// QueryTimeout bounds each /api/users query. Zero means no deadline.
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"10s"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}
