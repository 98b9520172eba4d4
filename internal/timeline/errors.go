package timeline

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when an option is out of range. The
// engine refuses to run rather than substituting a default.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError reports which option was rejected.
type ConfigError struct {
	Field string
	Value int
	Rule  string // e.g. "must be positive"
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s (got %d)", ErrInvalidConfiguration, e.Field, e.Rule, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

func checkPositive(field string, v int) error {
	if v <= 0 {
		return &ConfigError{Field: field, Value: v, Rule: "must be positive"}
	}
	return nil
}

func checkNonNegative(field string, v int) error {
	if v < 0 {
		return &ConfigError{Field: field, Value: v, Rule: "must not be negative"}
	}
	return nil
}
