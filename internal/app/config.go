package app

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
// Every field can come from the environment; CLI flags override afterwards.
type Config struct {
	LogFormat     string `env:"CALCGRID_LOG_FORMAT" envDefault:"text"`
	LogLevel      string `env:"CALCGRID_LOG_LEVEL" envDefault:"info"`
	DefaultLocale string `env:"CALCGRID_DEFAULT_LOCALE" envDefault:"en"`

	// MaxIterations clamps bounded accumulation constructs in formulas.
	// Zero keeps the evaluator's built-in limit.
	MaxIterations int `env:"CALCGRID_MAX_ITERATIONS"`
}

// ConfigFromEnv builds a Config from CALCGRID_* environment variables.
func ConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}
	return &cfg, nil
}

// NewConfig validates a Config assembled by the CLI layer.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("max iterations must not be negative, got %d", cfg.MaxIterations)
	}
	return &cfg, nil
}
