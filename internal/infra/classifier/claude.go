// Package classifier provides the AI-backed content classification
// adapters for Claude (Anthropic) and OpenAI, with retry and circuit
// breaker wrapping and structured observability.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"localwire/internal/domain/entity"
	"localwire/internal/resilience/circuitbreaker"
	"localwire/internal/resilience/retry"
)

// defaultClaudeModel is used when CLASSIFIER_MODEL is unset.
var defaultClaudeModel = string(anthropic.ModelClaudeSonnet4_5_20250929)

// Claude classifies content using Anthropic's Claude API.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// NewClaude creates a Claude classifier with the given API key.
func NewClaude(apiKey string, cfg Config) *Claude {
	if cfg.Model == "" {
		cfg.Model = defaultClaudeModel
	}

	slog.Info("Initialized Claude classifier",
		slog.String("model", cfg.Model),
		slog.Int("body_char_limit", cfg.BodyCharLimit),
		slog.String("locale", cfg.Locale))

	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         cfg,
	}
}

// Classify sends one item through the Claude API and returns the raw JSON
// response body. It uses circuit breaker and retry logic for reliability.
func (c *Claude) Classify(ctx context.Context, item *entity.RawContent, src *entity.Source) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result []byte

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doClassify(ctx, item, src)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.([]byte)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("claude classify failed after retries: %w", retryErr)
	}

	return result, nil
}

// doClassify performs the actual API call without retry or circuit breaker.
func (c *Claude) doClassify(ctx context.Context, item *entity.RawContent, src *entity.Source) ([]byte, error) {
	requestID := uuid.New().String()
	prompt := BuildPrompt(item, src, c.config)

	slog.InfoContext(ctx, "Starting classification",
		slog.String("request_id", requestID),
		slog.Int64("raw_content_id", item.ID),
		slog.Int("prompt_length", len(prompt)))

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
		slog.ErrorContext(ctx, "Classification request failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return nil, fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return nil, fmt.Errorf("claude api returned unexpected response type")
	}

	slog.InfoContext(ctx, "Classification completed",
		slog.String("request_id", requestID),
		slog.Int64("raw_content_id", item.ID),
		slog.Int("response_length", len(textBlock.Text)),
		slog.Duration("duration", duration))

	return []byte(extractJSON(textBlock.Text)), nil
}
