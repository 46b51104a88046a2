package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/balashankar-d/PolicyPilot/internal/config"
	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// Embedder is the embedding capability the core depends on: text in,
// fixed-dimension vector out. Every call within a process lifetime returns
// vectors of the same dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Service wraps a langchaingo embedder with a bounded per-call timeout and
// maps failures onto the core error taxonomy.
type Service struct {
	impl    *embeddings.EmbedderImpl
	timeout time.Duration
}

// NewOllamaService creates an embedder backed by an Ollama server.
func NewOllamaService(cfg *config.LLMConfig) (*Service, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama embedding model: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	log.Debug().Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("Initialized ollama embedder")
	return &Service{impl: impl, timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}, nil
}

// NewOpenAIService creates an embedder backed by an OpenAI-compatible API.
func NewOpenAIService(cfg *config.LLMConfig) (*Service, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing openai embedding model: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	log.Debug().Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("Initialized openai embedder")
	return &Service{impl: impl, timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}, nil
}

// NewService picks the provider named in the config.
func NewService(cfg *config.LLMConfig) (*Service, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaService(cfg)
	case "openai":
		return NewOpenAIService(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	vec, err := s.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, wrapEmbedErr(err)
	}
	return vec, nil
}

func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	vecs, err := s.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, wrapEmbedErr(err)
	}
	return vecs, nil
}

func wrapEmbedErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
}
