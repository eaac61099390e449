// Package oracle provides enrichment Oracle implementations backed by LLM
// APIs. It includes adapters for Claude (Anthropic) and OpenAI with circuit
// breaker and retry protection, plus a NoOp used when enrichment is disabled.
package oracle

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"abyssal-tome/internal/usecase/enrich"
)

const (
	defaultMaxSuggestions = 5
	minMaxSuggestions     = 1
	maxMaxSuggestions     = 20
)

// Config holds configuration for an LLM-backed Oracle adapter.
type Config struct {
	// MaxSuggestions caps how many tags and related codes one call may
	// propose. Loaded from ORACLE_MAX_SUGGESTIONS, valid range 1-20.
	MaxSuggestions int

	// Model is the API model identifier.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single Oracle API call.
	Timeout time.Duration
}

// ValidateMaxSuggestions validates that the suggestion cap is within the
// valid range (1-20).
func ValidateMaxSuggestions(n int) error {
	if n < minMaxSuggestions {
		return fmt.Errorf("max suggestions %d is below minimum %d", n, minMaxSuggestions)
	}
	if n > maxMaxSuggestions {
		return fmt.Errorf("max suggestions %d exceeds maximum %d", n, maxMaxSuggestions)
	}
	return nil
}

// LoadClaudeConfig loads the Claude adapter configuration from environment
// variables. Invalid values fall back to defaults with a warning log.
//
// Environment variables:
//   - ORACLE_MAX_SUGGESTIONS: suggestion cap (default: 5, range: 1-20)
func LoadClaudeConfig() Config {
	maxSuggestions := defaultMaxSuggestions

	if env := os.Getenv("ORACLE_MAX_SUGGESTIONS"); env != "" {
		parsed, err := strconv.Atoi(env)
		if err != nil {
			slog.Warn("Invalid ORACLE_MAX_SUGGESTIONS format, using default",
				slog.String("value", env),
				slog.Int("default", defaultMaxSuggestions),
				slog.String("error", err.Error()))
		} else if verr := ValidateMaxSuggestions(parsed); verr != nil {
			slog.Warn("ORACLE_MAX_SUGGESTIONS out of valid range, using default",
				slog.Int("value", parsed),
				slog.Int("default", defaultMaxSuggestions))
		} else {
			maxSuggestions = parsed
		}
	}

	return Config{
		MaxSuggestions: maxSuggestions,
		Model:          "claude-sonnet-4-5-20250929",
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
	}
}

// LoadOpenAIConfig loads the OpenAI adapter configuration from environment
// variables. Unlike the Claude loader it fails closed: invalid settings
// return an error instead of a default.
//
// Environment variables:
//   - ORACLE_MAX_SUGGESTIONS: suggestion cap (default: 5, range: 1-20)
func LoadOpenAIConfig() (Config, error) {
	maxSuggestions := defaultMaxSuggestions

	if env := os.Getenv("ORACLE_MAX_SUGGESTIONS"); env != "" {
		parsed, err := strconv.Atoi(env)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ORACLE_MAX_SUGGESTIONS format: %s: %w", env, err)
		}
		if err := ValidateMaxSuggestions(parsed); err != nil {
			return Config{}, fmt.Errorf("ORACLE_MAX_SUGGESTIONS out of valid range: %w", err)
		}
		maxSuggestions = parsed
	}

	return Config{
		MaxSuggestions: maxSuggestions,
		Model:          "gpt-4o-mini",
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
	}, nil
}

// New selects an Oracle implementation by kind. An empty kind disables
// enrichment via the NoOp Oracle.
func New(kind, apiKey string) (enrich.Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "noop":
		return NewNoOp(), nil
	case "claude":
		if apiKey == "" {
			return nil, fmt.Errorf("claude oracle requires an API key")
		}
		return NewClaude(apiKey), nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai oracle requires an API key")
		}
		cfg, err := LoadOpenAIConfig()
		if err != nil {
			return nil, err
		}
		return NewOpenAI(apiKey, cfg), nil
	default:
		return nil, fmt.Errorf("unknown oracle type %q", kind)
	}
}
