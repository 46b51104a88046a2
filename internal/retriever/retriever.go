// Package retriever queries the tenant vector index for the chunks most
// similar to a question and optionally re-ranks them before gating.
package retriever

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// Index is the nearest-neighbour search surface the retriever delegates to.
type Index interface {
	Search(ctx context.Context, tenantID string, queryVec []float32, topK int) (models.RetrievalResult, error)
}

// Reranker re-orders a retrieval result against the question text. The
// hook is reserved for cross-encoder scoring; the bundled implementation
// uses keyword overlap.
type Reranker interface {
	Rerank(question string, result models.RetrievalResult) models.RetrievalResult
}

type Retriever struct {
	index    Index
	topK     int
	reranker Reranker
}

// New creates a retriever. reranker may be nil to keep plain similarity
// ordering.
func New(index Index, topK int, reranker Reranker) *Retriever {
	return &Retriever{index: index, topK: topK, reranker: reranker}
}

// Retrieve returns up to topK chunks for the tenant ranked against the
// question vector. A tenant with nothing indexed gets an empty result,
// not an error.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, question string, questionVec []float32) (models.RetrievalResult, error) {
	result, err := r.index.Search(ctx, tenantID, questionVec, r.topK)
	if err != nil {
		return models.RetrievalResult{}, err
	}
	if result.Empty() {
		log.Debug().Str("tenant", tenantID).Msg("No chunks retrieved")
		return result, nil
	}
	if r.reranker != nil {
		result = r.reranker.Rerank(question, result)
	}
	return result, nil
}
