package config

import (
	"github.com/kilianp07/ferntree/core/model"
)

// LoggingConfig defines the run logger output.
type LoggingConfig struct {
	// Level is a zerolog level name: debug, info, warn or error.
	Level string `json:"level"`
	// Format selects "json" lines or a human readable "console" output.
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return model.NewConfigError("logging.level", "unknown level %q", c.Level)
	}
	if c.Format != "json" && c.Format != "console" {
		return model.NewConfigError("logging.format", "unknown format %q", c.Format)
	}
	return nil
}
