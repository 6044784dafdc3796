// Package config loads runtime tuning from environment variables.
//
// Variables use TEXTPIPE prefix:
//
//	TEXTPIPE_CAPACITY=256	units every channel between stages can hold
//	TEXTPIPE_LOG_LEVEL=info	logrus level name
//	TEXTPIPE_LOG_FORMAT=text	text or json
//	TEXTPIPE_METRICS=false	log metric snapshot when pipe is done
//
// None of them changes what the pipe produces.
package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix of all environment variables.
const Prefix = "TEXTPIPE"

// ErrCapacity is returned when configured capacity is not positive.
var ErrCapacity = errors.New("capacity must be positive")

// Config holds all application configuration.
type Config struct {
	Capacity int `default:"256"`
	Log      LogConfig
	Metrics  bool `default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `default:"info"`
	Format string `default:"text"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Capacity < 1 {
		return nil, fmt.Errorf("failed to load config: %w: %d", ErrCapacity, cfg.Capacity)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Capacity: 256,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
