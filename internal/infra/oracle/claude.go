package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"abyssal-tome/internal/resilience/circuitbreaker"
	"abyssal-tome/internal/resilience/retry"
	"abyssal-tome/internal/usecase/enrich"
)

// Claude implements the enrichment Oracle using Anthropic's Claude API.
// It includes circuit breaker and retry logic for improved reliability.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          Config
	metricsRecorder OracleMetricsRecorder
}

// NewClaude creates a new Claude Oracle with the given API key.
// It automatically configures circuit breaker, retry logic and metrics
// recording.
func NewClaude(apiKey string) *Claude {
	config := LoadClaudeConfig()

	slog.Info("Initialized Claude oracle with configuration",
		slog.Int("max_suggestions", config.MaxSuggestions),
		slog.String("model", config.Model))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:     retry.OracleAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusOracleMetrics(),
	}
}

// Propose asks Claude for enrichment suggestions for one ruling.
// It uses circuit breaker and retry logic for improved reliability.
func (c *Claude) Propose(ctx context.Context, req enrich.OracleRequest) (enrich.OracleSuggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result enrich.OracleSuggestion

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doPropose(ctx, req)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude oracle circuit breaker open, request rejected",
					slog.String("service", "claude-oracle"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude oracle unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(enrich.OracleSuggestion)
		return nil
	})

	if retryErr != nil {
		c.metricsRecorder.RecordFailure()
		return enrich.OracleSuggestion{}, fmt.Errorf("claude propose failed after retries: %w", retryErr)
	}

	return result, nil
}

// doPropose performs the actual API call without retry or circuit breaker.
func (c *Claude) doPropose(ctx context.Context, req enrich.OracleRequest) (enrich.OracleSuggestion, error) {
	prompt := buildPrompt(req, c.config.MaxSuggestions)

	slog.InfoContext(ctx, "Requesting enrichment suggestion",
		slog.String("ruling_id", req.RulingID),
		slog.String("card_code", req.CardCode))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Enrichment request failed",
			slog.String("ruling_id", req.RulingID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return enrich.OracleSuggestion{}, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return enrich.OracleSuggestion{}, fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return enrich.OracleSuggestion{}, fmt.Errorf("claude api returned unexpected response type")
	}

	sug, err := parseSuggestion(textBlock.Text)
	if err != nil {
		return enrich.OracleSuggestion{}, err
	}
	sug = capSuggestion(sug, c.config.MaxSuggestions)

	slog.InfoContext(ctx, "Enrichment suggestion received",
		slog.String("ruling_id", req.RulingID),
		slog.Int("tags", len(sug.Tags)),
		slog.Int("related_codes", len(sug.RelatedCodes)),
		slog.Duration("duration", duration))

	c.metricsRecorder.RecordDuration(duration)
	c.metricsRecorder.RecordSuggestions(len(sug.Tags), len(sug.RelatedCodes))

	return sug, nil
}
