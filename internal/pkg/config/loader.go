// Package config provides fail-open environment loading shared by the
// worker, oracle and pipeline components. Loaders never return errors: an
// unset variable takes the default silently, and a set value that fails to
// parse or validate falls back to the default with a warning the caller logs
// and counts.
package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult carries one loaded value together with the fallback
// diagnostics the caller reports. Value holds the configured type (string,
// time.Duration or int depending on the loader) and is the default whenever
// FallbackApplied is set.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func loaded(value interface{}) ConfigLoadResult {
	return ConfigLoadResult{Value: value}
}

func fellBack(envKey, raw string, reason error, defaultValue interface{}) ConfigLoadResult {
	return ConfigLoadResult{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, reason, defaultValue)},
		FallbackApplied: true,
	}
}

// LoadEnvWithFallback loads a string from envKey. A nil validator accepts
// anything; a validation failure falls back to defaultValue with a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return loaded(defaultValue)
	}
	if validator != nil {
		if err := validator(raw); err != nil {
			return fellBack(envKey, raw, err, defaultValue)
		}
	}
	return loaded(raw)
}

// LoadEnvDuration loads a Go duration string ("90s", "45m", "1h30m") from
// envKey. Both a parse failure and a validation failure fall back to
// defaultValue with a warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return loaded(defaultValue)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fellBack(envKey, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fellBack(envKey, raw, err, defaultValue)
		}
	}
	return loaded(parsed)
}

// LoadEnvInt loads an integer from envKey. Both a parse failure and a
// validation failure fall back to defaultValue with a warning.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return loaded(defaultValue)
	}
	var parsed int
	if _, err := fmt.Sscanf(raw, "%d", &parsed); err != nil {
		return fellBack(envKey, raw, fmt.Errorf("invalid integer format"), defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fellBack(envKey, raw, err, defaultValue)
		}
	}
	return loaded(parsed)
}
