package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrGenerationFailed indicates the backend failed to produce text.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrUnavailable indicates the circuit breaker is open and the backend
	// is not being called.
	ErrUnavailable = errors.New("generation backend unavailable")

	// ErrNoMessages indicates an empty message list.
	ErrNoMessages = errors.New("no messages to generate from")
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message in a generation request.
type Message struct {
	Role    Role
	Content string
}

// Generator produces a text completion from a message sequence.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Config holds configuration for the LLM generator.
type Config struct {
	// BaseURL is the base URL for the OpenAI-compatible chat API.
	BaseURL string

	// Model is the chat model to use.
	Model string

	// APIKey is the API key.
	APIKey string

	// MaxTokens bounds the completion length. Default: 500.
	MaxTokens int

	// Temperature controls sampling randomness. Default: 0.7.
	Temperature float64

	// Timeout bounds a single backend call. Default: 15s.
	Timeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 500
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be in [0, 2]", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// LLMGenerator calls an OpenAI-compatible chat API. A failed call is
// retried once before the error is surfaced.
type LLMGenerator struct {
	config Config
	model  llms.Model
	logger *zap.Logger
}

// NewLLMGenerator creates a generator with the given configuration.
func NewLLMGenerator(config Config, logger *zap.Logger) (*LLMGenerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	opts := []openai.Option{
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	if config.APIKey != "" {
		opts = append(opts, openai.WithToken(config.APIKey))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	return &LLMGenerator{config: config, model: model, logger: logger}, nil
}

// Generate produces a completion for the message sequence.
func (g *LLMGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	content := make([]llms.MessageContent, len(messages))
	for i, m := range messages {
		content[i] = llms.TextParts(chatMessageType(m.Role), m.Content)
	}

	text, err := g.generateOnce(ctx, content)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	g.logger.Warn("generation failed, retrying once", zap.Error(err))
	text, retryErr := g.generateOnce(ctx, content)
	if retryErr != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, retryErr)
	}
	return text, nil
}

func (g *LLMGenerator) generateOnce(ctx context.Context, content []llms.MessageContent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(g.config.MaxTokens),
		llms.WithTemperature(g.config.Temperature),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("blank completion")
	}
	return text, nil
}

func chatMessageType(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

var _ Generator = (*LLMGenerator)(nil)
