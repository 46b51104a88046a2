package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balashankar-d/PolicyPilot/internal/config"
)

func TestNewServiceSelectsProvider(t *testing.T) {
	s, err := NewService(&config.LLMConfig{
		Provider:       "ollama",
		BaseURL:        "http://localhost:11434",
		Model:          "nomic-embed-text",
		TimeoutSeconds: 30,
	})
	require.NoError(t, err)
	assert.NotNil(t, s)

	// empty provider defaults to the local one
	s, err = NewService(&config.LLMConfig{Model: "nomic-embed-text", TimeoutSeconds: 30})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewServiceUnknownProvider(t *testing.T) {
	_, err := NewService(&config.LLMConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
