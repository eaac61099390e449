package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"abyssal-tome/internal/resilience/circuitbreaker"
	"abyssal-tome/internal/resilience/retry"
	"abyssal-tome/internal/usecase/enrich"
)

// OpenAI implements the enrichment Oracle using OpenAI's chat API.
// It includes circuit breaker and retry logic for improved reliability.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          Config
	metricsRecorder OracleMetricsRecorder
}

// NewOpenAI creates a new OpenAI Oracle with the given API key and
// configuration.
func NewOpenAI(apiKey string, config Config) *OpenAI {
	slog.Info("Initialized OpenAI oracle with configuration",
		slog.Int("max_suggestions", config.MaxSuggestions),
		slog.String("model", config.Model))

	return &OpenAI{
		client:          openai.NewClient(apiKey),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:     retry.OracleAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusOracleMetrics(),
	}
}

// Propose asks the OpenAI API for enrichment suggestions for one ruling.
func (o *OpenAI) Propose(ctx context.Context, req enrich.OracleRequest) (enrich.OracleSuggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result enrich.OracleSuggestion

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doPropose(ctx, req)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai oracle circuit breaker open, request rejected",
					slog.String("service", "openai-oracle"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai oracle unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(enrich.OracleSuggestion)
		return nil
	})

	if retryErr != nil {
		o.metricsRecorder.RecordFailure()
		return enrich.OracleSuggestion{}, fmt.Errorf("openai propose failed after retries: %w", retryErr)
	}

	return result, nil
}

// doPropose performs the actual API call without retry or circuit breaker.
func (o *OpenAI) doPropose(ctx context.Context, req enrich.OracleRequest) (enrich.OracleSuggestion, error) {
	prompt := buildPrompt(req, o.config.MaxSuggestions)

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Enrichment request failed",
			slog.String("ruling_id", req.RulingID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return enrich.OracleSuggestion{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return enrich.OracleSuggestion{}, fmt.Errorf("openai api returned empty response")
	}

	sug, err := parseSuggestion(resp.Choices[0].Message.Content)
	if err != nil {
		return enrich.OracleSuggestion{}, err
	}
	sug = capSuggestion(sug, o.config.MaxSuggestions)

	o.metricsRecorder.RecordDuration(duration)
	o.metricsRecorder.RecordSuggestions(len(sug.Tags), len(sug.RelatedCodes))

	return sug, nil
}
