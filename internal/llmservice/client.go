// Package llmservice wraps the external language-model capability behind
// a small prompt-in, text-out interface.
package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/balashankar-d/PolicyPilot/internal/config"
	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// Client is the inference capability consumed by the answer pipeline.
type Client interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// Service calls a langchaingo chat model with a bounded timeout. The
// underlying model is constructed once and shared across requests.
type Service struct {
	llm     llms.Model
	timeout time.Duration
}

// NewService builds the client for the provider named in the config.
func NewService(cfg *config.LLMConfig) (*Service, error) {
	var (
		llm llms.Model
		err error
	)
	switch cfg.Provider {
	case "ollama", "":
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing llm: %w", err)
	}
	log.Debug().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("Initialized LLM client")
	return &Service{llm: llm, timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}, nil
}

func (s *Service) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	res, err := s.llm.GenerateContent(ctx, messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", models.ErrUpstreamError, err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Content) == "" {
		return "", fmt.Errorf("%w: empty completion", models.ErrUpstreamError)
	}
	return strings.TrimSpace(res.Choices[0].Content), nil
}
