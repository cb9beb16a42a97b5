package model

import (
	"errors"
	"fmt"
)

// ErrConfig marks malformed or missing configuration. It is always raised
// before the simulation loop starts.
var ErrConfig = errors.New("config error")

// ConfigError names the offending configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrConfig).
func (e *ConfigError) Unwrap() error { return ErrConfig }

// NewConfigError formats a ConfigError for field.
func NewConfigError(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is or wraps a configuration error.
func IsConfigError(err error) bool { return errors.Is(err, ErrConfig) }
