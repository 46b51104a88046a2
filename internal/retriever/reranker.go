package retriever

import (
	"sort"

	"github.com/balashankar-d/PolicyPilot/internal/helper"
	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// KeywordReranker scores chunks by content-word overlap with the question
// and keeps the top N. Vector similarity is the tie-breaker so the
// original ordering survives when keyword evidence is equal.
type KeywordReranker struct {
	TopN int
}

func (k KeywordReranker) Rerank(question string, result models.RetrievalResult) models.RetrievalResult {
	if result.Empty() {
		return result
	}
	n := k.TopN
	if n <= 0 || n > len(result.Chunks) {
		n = len(result.Chunks)
	}

	qWords := helper.WordSet(question)
	type scored struct {
		chunk   models.ScoredChunk
		overlap int
	}
	ranked := make([]scored, 0, len(result.Chunks))
	for _, sc := range result.Chunks {
		overlap := 0
		for _, w := range helper.ContentWords(sc.Chunk.Text) {
			if _, ok := qWords[w]; ok {
				overlap++
			}
		}
		ranked = append(ranked, scored{chunk: sc, overlap: overlap})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].overlap != ranked[j].overlap {
			return ranked[i].overlap > ranked[j].overlap
		}
		return ranked[i].chunk.Similarity > ranked[j].chunk.Similarity
	})

	out := make([]models.ScoredChunk, 0, n)
	for _, s := range ranked[:n] {
		out = append(out, s.chunk)
	}
	return models.RetrievalResult{Chunks: out}
}
