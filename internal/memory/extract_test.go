package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFacts(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    map[string]string
	}{
		{
			"name statement",
			"My name is Alice. How long is the refund window?",
			map[string]string{"name": "Alice"},
		},
		{
			"call me variant",
			"Please call me Bob",
			map[string]string{"name": "Bob"},
		},
		{
			"location",
			"I live in Berlin, what are the shipping rates?",
			map[string]string{"location": "Berlin"},
		},
		{
			"occupation",
			"I work as a nurse. Does the policy cover me?",
			map[string]string{"occupation": "nurse"},
		},
		{
			"language preference",
			"I prefer German please",
			map[string]string{"preferred_language": "German"},
		},
		{
			"multiple facts in one message",
			"My name is Alice and I live in Berlin",
			map[string]string{"name": "Alice", "location": "Berlin"},
		},
		{
			"nothing personal",
			"What is the refund window?",
			map[string]string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractFacts(tc.message))
		})
	}
}

func TestExtractFactsFirstPatternWins(t *testing.T) {
	facts := ExtractFacts("My name is Alice, but call me Ally")
	assert.Equal(t, "Alice", facts["name"])
}
