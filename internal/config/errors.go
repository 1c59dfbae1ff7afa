package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration error
var ErrInvalidConfig = errors.New("invalid configuration")

// InvalidConfigError reports a configuration value that cannot be used
type InvalidConfigError struct {
	// Source is where the value came from (a file path, "environment", "flags")
	Source string
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration in %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("invalid configuration in %s: %s: %s", e.Source, e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// NewInvalidConfigError creates a new configuration error
func NewInvalidConfigError(source, field, reason string) error {
	return &InvalidConfigError{
		Source: source,
		Field:  field,
		Reason: reason,
	}
}
