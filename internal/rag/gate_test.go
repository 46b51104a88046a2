package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balashankar-d/PolicyPilot/internal/models"
	"github.com/balashankar-d/PolicyPilot/internal/retriever"
)

func resultWith(sims ...float32) models.RetrievalResult {
	chunks := make([]models.ScoredChunk, len(sims))
	for i, s := range sims {
		chunks[i] = models.ScoredChunk{Similarity: s}
	}
	return models.RetrievalResult{Chunks: chunks}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		result    models.RetrievalResult
		threshold float32
		want      GateState
	}{
		{"nothing retrieved", "refund?", models.RetrievalResult{}, 0.3, GateNoEvidence},
		{"best below threshold", "refund?", resultWith(0.2, 0.1), 0.3, GateInsufficient},
		{"best exactly at threshold", "refund?", resultWith(0.3), 0.3, GateSufficient},
		{"best above threshold", "refund?", resultWith(0.9, 0.2), 0.3, GateSufficient},
		{"empty question with evidence", "   ", resultWith(0.9), 0.3, GateInsufficient},
		{"best similarity not in first position", "refund?", resultWith(0.2, 0.9), 0.3, GateSufficient},
		{"zero threshold passes everything retrieved", "refund?", resultWith(0.01), 0, GateSufficient},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.question, tc.result, tc.threshold))
		})
	}
}

func TestDecideAfterReranking(t *testing.T) {
	// keyword re-ranking can promote a low-similarity chunk to the front;
	// the gate still judges the best similarity in the whole result
	result := models.RetrievalResult{Chunks: []models.ScoredChunk{
		{Chunk: models.Chunk{Text: "shipping rates for heavy parcels"}, Similarity: 0.9},
		{Chunk: models.Chunk{Text: "the refund window is fourteen days"}, Similarity: 0.2},
	}}
	reranked := retriever.KeywordReranker{TopN: 2}.Rerank("what is the refund window", result)
	require.Equal(t, float32(0.2), reranked.Chunks[0].Similarity)
	assert.Equal(t, GateSufficient, Decide("what is the refund window", reranked, 0.3))
}

func TestGateStateString(t *testing.T) {
	assert.Equal(t, "no_evidence", GateNoEvidence.String())
	assert.Equal(t, "insufficient", GateInsufficient.String())
	assert.Equal(t, "sufficient", GateSufficient.String())
}
