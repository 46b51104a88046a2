package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is loaded once at startup and treated as immutable afterwards.
// Components receive it (or a section) by reference and never re-read it.
type Config struct {
	Database  DatabaseConfig `yaml:"database"`
	Embedding LLMConfig      `yaml:"embedding"`
	LLM       LLMConfig      `yaml:"llm"`
	RAG       RAGConfig      `yaml:"rag"`
}

type DatabaseConfig struct {
	// DSN is the Postgres connection string. Empty means run with the
	// in-memory stores instead of a database.
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

type LLMConfig struct {
	// Provider is "ollama" or "openai" (any OpenAI-compatible endpoint).
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RAGConfig struct {
	ChunkSize          int     `yaml:"chunk_size"`
	ChunkOverlap       int     `yaml:"chunk_overlap"`
	TopK               int     `yaml:"top_k"`
	RelevanceThreshold float32 `yaml:"relevance_threshold"`
	// MinGrounding is the minimum content-word overlap ratio between the
	// model's answer and the prompted chunks before the answer is replaced
	// with the fallback.
	MinGrounding float64 `yaml:"min_grounding"`
	// RerankTopN trims the retrieval result after re-ranking; 0 disables
	// the re-ranking hook.
	RerankTopN  int    `yaml:"rerank_top_n"`
	MaxHistory  int    `yaml:"max_history"`
	PersistPath string `yaml:"persist_path"`
}

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
	defaultTopK         = 5
	defaultMaxHistory   = 5
	defaultTimeout      = 60
	defaultPersistPath  = "./chromemdb"
)

// LoadConfig reads and validates the YAML config at path. Values may
// reference environment variables with ${VAR} syntax. Defaults are
// populated first and the file only overrides the keys it names, so an
// explicit zero (chunk_overlap: 0) survives loading.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(string(data))
	cfg := defaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Embedding: LLMConfig{TimeoutSeconds: defaultTimeout},
		LLM:       LLMConfig{TimeoutSeconds: defaultTimeout},
		RAG: RAGConfig{
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
			TopK:         defaultTopK,
			MaxHistory:   defaultMaxHistory,
			PersistPath:  defaultPersistPath,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			cfg.RAG.ChunkOverlap, cfg.RAG.ChunkSize)
	}
	if cfg.RAG.RelevanceThreshold < 0 || cfg.RAG.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance_threshold must be in [0,1], got %v", cfg.RAG.RelevanceThreshold)
	}
	if cfg.RAG.MinGrounding < 0 || cfg.RAG.MinGrounding > 1 {
		return fmt.Errorf("min_grounding must be in [0,1], got %v", cfg.RAG.MinGrounding)
	}
	return nil
}
