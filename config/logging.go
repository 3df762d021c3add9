package config

import "fmt"

// LoggingConfig carries the configured log level, validated against
// zerolog's level names. infra/logger does not read Level; its loggers
// choose console vs. JSON formatting from APP_ENV.
type LoggingConfig struct {
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the configured level is one zerolog recognizes.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging: unknown level %q", c.Level)
	}
}
