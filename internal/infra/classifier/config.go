package classifier

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"localwire/internal/usecase/classify"
)

// Backend identifiers for the classification API.
const (
	BackendClaude = "claude"
	BackendOpenAI = "openai"
)

// Config holds configuration parameters shared by the classifier backends.
// Configuration is loaded from environment variables with fallback to
// defaults.
type Config struct {
	// Backend selects the API implementation: claude or openai.
	// Loaded from CLASSIFIER_BACKEND. Default: claude.
	Backend string

	// Model is the API model identifier.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// BodyCharLimit caps how many characters of the item body are sent.
	// Loaded from CLASSIFIER_BODY_LIMIT. Valid range: 1000-20000.
	// Default: 6000.
	BodyCharLimit int

	// Locale names the community locale used in the prompt so relevance
	// scoring is anchored to the right place.
	// Loaded from CLASSIFIER_LOCALE. Default: "the local community".
	Locale string

	// Timeout is the maximum duration for a single classification call.
	Timeout time.Duration
}

// LoadConfig loads classifier configuration from environment variables.
// Invalid values fall back to defaults with a warning log.
func LoadConfig() Config {
	const (
		defaultBodyLimit = 6000
		minBodyLimit     = 1000
		maxBodyLimit     = 20000
	)

	backend := os.Getenv("CLASSIFIER_BACKEND")
	switch backend {
	case BackendClaude, BackendOpenAI:
	case "":
		backend = BackendClaude
	default:
		slog.Warn("Unknown CLASSIFIER_BACKEND, using default",
			slog.String("value", backend),
			slog.String("default", BackendClaude))
		backend = BackendClaude
	}

	bodyLimit := defaultBodyLimit
	if envLimit := os.Getenv("CLASSIFIER_BODY_LIMIT"); envLimit != "" {
		parsed, err := strconv.Atoi(envLimit)
		if err != nil {
			slog.Warn("Invalid CLASSIFIER_BODY_LIMIT format, using default",
				slog.String("value", envLimit),
				slog.Int("default", defaultBodyLimit),
				slog.String("error", err.Error()))
		} else if parsed < minBodyLimit || parsed > maxBodyLimit {
			slog.Warn("CLASSIFIER_BODY_LIMIT out of valid range, using default",
				slog.Int("value", parsed),
				slog.Int("min", minBodyLimit),
				slog.Int("max", maxBodyLimit),
				slog.Int("default", defaultBodyLimit))
		} else {
			bodyLimit = parsed
		}
	}

	locale := os.Getenv("CLASSIFIER_LOCALE")
	if locale == "" {
		locale = "the local community"
	}

	model := os.Getenv("CLASSIFIER_MODEL")

	return Config{
		Backend:       backend,
		Model:         model,
		MaxTokens:     2048,
		BodyCharLimit: bodyLimit,
		Locale:        locale,
		Timeout:       60 * time.Second,
	}
}

// New creates the configured classifier backend. The API key comes from
// ANTHROPIC_API_KEY or OPENAI_API_KEY depending on the backend.
func New(cfg Config) (classify.Completer, error) {
	switch cfg.Backend {
	case BackendClaude:
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the claude backend")
		}
		return NewClaude(apiKey, cfg), nil
	case BackendOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
		return NewOpenAI(apiKey, cfg), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}
