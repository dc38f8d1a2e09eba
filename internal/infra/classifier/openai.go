package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"localwire/internal/domain/entity"
	"localwire/internal/resilience/circuitbreaker"
	"localwire/internal/resilience/retry"
)

// defaultOpenAIModel is used when CLASSIFIER_MODEL is unset.
const defaultOpenAIModel = openai.GPT4oMini

// OpenAI classifies content using OpenAI's chat completion API with JSON
// response formatting enabled.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// NewOpenAI creates an OpenAI classifier with the given API key.
func NewOpenAI(apiKey string, cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}

	slog.Info("Initialized OpenAI classifier",
		slog.String("model", cfg.Model),
		slog.Int("body_char_limit", cfg.BodyCharLimit),
		slog.String("locale", cfg.Locale))

	return &OpenAI{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         cfg,
	}
}

// Classify sends one item through the OpenAI API and returns the raw JSON
// response body.
func (o *OpenAI) Classify(ctx context.Context, item *entity.RawContent, src *entity.Source) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result []byte

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doClassify(ctx, item, src)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.([]byte)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai classify failed after retries: %w", retryErr)
	}

	return result, nil
}

// doClassify performs the actual API call without retry or circuit breaker.
func (o *OpenAI) doClassify(ctx context.Context, item *entity.RawContent, src *entity.Source) ([]byte, error) {
	prompt := BuildPrompt(item, src, o.config)

	slog.InfoContext(ctx, "Starting classification",
		slog.Int64("raw_content_id", item.ID),
		slog.Int("prompt_length", len(prompt)))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Classification request failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned empty response")
	}

	slog.InfoContext(ctx, "Classification completed",
		slog.Int64("raw_content_id", item.ID),
		slog.Int("response_length", len(resp.Choices[0].Message.Content)),
		slog.Duration("duration", duration))

	return []byte(extractJSON(resp.Choices[0].Message.Content)), nil
}
