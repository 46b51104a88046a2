package rag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/balashankar-d/PolicyPilot/internal/memory"
	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// PromptInput is everything the prompt builder assembles: gated evidence,
// the tenant's memory snapshot, and the bounded history window.
type PromptInput struct {
	Question string
	Chunks   []models.ScoredChunk
	Facts    map[string]string
	History  []memory.Turn
}

// BuildPrompt produces the single prompt string sent to the LLM. The
// instruction block is a fixed constant and appears verbatim in every
// prompt; sections are omitted when empty, the documents section never is
// (the gate guarantees evidence before this runs).
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(models.PromptInstructions)
	b.WriteString("\n\n")

	if len(in.Facts) > 0 {
		b.WriteString("[User Profile]\n")
		keys := make([]string, 0, len(in.Facts))
		for k := range in.Facts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, in.Facts[k])
		}
		b.WriteString("\n")
	}

	if len(in.History) > 0 {
		b.WriteString("[Conversation History]\n")
		for i, turn := range in.History {
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, turn.Question, i+1, turn.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("[Retrieved Documents]\n")
	for i, sc := range in.Chunks {
		fmt.Fprintf(&b, "Document %d (source: %s):\n%s\n\n", i+1, sc.Chunk.SourceName, strings.TrimSpace(sc.Chunk.Text))
	}

	fmt.Fprintf(&b, "User Question:\n%s\n\nAnswer:", strings.TrimSpace(in.Question))
	return b.String()
}

// PromptSources is the deduplicated list of source names of the chunks
// included in a prompt, in first-appearance order.
func PromptSources(chunks []models.ScoredChunk) []string {
	seen := map[string]struct{}{}
	sources := []string{}
	for _, sc := range chunks {
		name := sc.Chunk.SourceName
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	return sources
}
