// Package rag wires chunking, embedding, retrieval, gating, prompting,
// and validation into the grounded answer pipeline.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/balashankar-d/PolicyPilot/internal/chromemdb"
	"github.com/balashankar-d/PolicyPilot/internal/chunker"
	"github.com/balashankar-d/PolicyPilot/internal/config"
	"github.com/balashankar-d/PolicyPilot/internal/embedding"
	"github.com/balashankar-d/PolicyPilot/internal/llmservice"
	"github.com/balashankar-d/PolicyPilot/internal/memory"
	"github.com/balashankar-d/PolicyPilot/internal/models"
	"github.com/balashankar-d/PolicyPilot/internal/retriever"
)

// Store is the relational persistence the pipeline needs: the document
// registry plus conversation history and key/value facts.
type Store interface {
	memory.Store
	UpsertDocument(ctx context.Context, doc models.Document) error
	CountDocuments(ctx context.Context, tenantID string) (int, error)
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
}

// Index is the tenant vector index surface the pipeline mutates.
type Index interface {
	retriever.Index
	ReplaceDocument(ctx context.Context, tenantID, documentID string, entries []chromemdb.Entry) error
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
	Count(tenantID string) int
	Existing(ctx context.Context, tenantID, documentID string) map[string]chromemdb.Stored
}

// Pipeline orchestrates ingestion and grounded answering. All collaborators
// are injected once at construction and shared across concurrent requests.
type Pipeline struct {
	cfg       *config.Config
	chunker   *chunker.Chunker
	embedder  embedding.Embedder
	index     Index
	retriever *retriever.Retriever
	llm       llmservice.Client
	store     Store
	validator Validator
}

func NewPipeline(cfg *config.Config, embedder embedding.Embedder, index Index, llm llmservice.Client, store Store) *Pipeline {
	var rr retriever.Reranker
	if cfg.RAG.RerankTopN > 0 {
		rr = retriever.KeywordReranker{TopN: cfg.RAG.RerankTopN}
	}
	return &Pipeline{
		cfg:       cfg,
		chunker:   chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		embedder:  embedder,
		index:     index,
		retriever: retriever.New(index, cfg.RAG.TopK, rr),
		llm:       llm,
		store:     store,
		validator: Validator{MinGrounding: cfg.RAG.MinGrounding, MinAnswerLength: 2},
	}
}

func tenantOrAnonymous(tenantID string) string {
	if strings.TrimSpace(tenantID) == "" {
		return models.TenantAnonymous
	}
	return tenantID
}

// Ingest chunks, embeds, and indexes one document for a tenant. It is
// idempotent: the same (tenant, source, text) again is a no-op after the
// content-hash check, and a changed text replaces the document's chunks
// without duplication. Nothing is written until every chunk has a vector,
// which keeps ingestion all-or-nothing per document.
func (p *Pipeline) Ingest(ctx context.Context, tenantID, sourceName, rawText string) (models.IngestResult, error) {
	tenantID = tenantOrAnonymous(tenantID)

	text := strings.TrimSpace(rawText)
	if text == "" {
		return models.IngestResult{}, fmt.Errorf("%w: %q", models.ErrEmptyDocument, sourceName)
	}
	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		return models.IngestResult{}, fmt.Errorf("%w: %q", models.ErrEmptyDocument, sourceName)
	}

	docID := models.DocumentID(tenantID, sourceName)
	existing := p.index.Existing(ctx, tenantID, docID)

	entries := make([]chromemdb.Entry, len(pieces))
	var pendingTexts []string
	var pendingIdx []int
	unchanged := 0
	for i, piece := range pieces {
		chunk := models.Chunk{
			ID:            models.ChunkID(docID, i),
			DocumentID:    docID,
			TenantID:      tenantID,
			SourceName:    sourceName,
			SequenceIndex: i,
			Text:          piece.Text,
			Span:          models.CharSpan{Start: piece.Start, End: piece.End},
		}
		hash := models.ContentHash(piece.Text)
		entries[i] = chromemdb.Entry{Chunk: chunk, ContentHash: hash}

		if prev, ok := existing[chunk.ID]; ok && prev.ContentHash == hash {
			entries[i].Embedding = prev.Embedding
			unchanged++
			continue
		}
		pendingTexts = append(pendingTexts, piece.Text)
		pendingIdx = append(pendingIdx, i)
	}

	if unchanged == len(pieces) && len(existing) == len(pieces) {
		log.Debug().Str("tenant", tenantID).Str("source", sourceName).Msg("Document unchanged, skipping re-ingestion")
		return models.IngestResult{DocumentID: docID, ChunksCreated: len(pieces)}, nil
	}

	if len(pendingTexts) > 0 {
		vectors, err := p.embedder.EmbedBatch(ctx, pendingTexts)
		if err != nil {
			return models.IngestResult{}, err
		}
		if len(vectors) != len(pendingTexts) {
			return models.IngestResult{}, fmt.Errorf("%w: got %d vectors for %d chunks",
				models.ErrEmbeddingUnavailable, len(vectors), len(pendingTexts))
		}
		for n, i := range pendingIdx {
			entries[i].Embedding = vectors[n]
		}
	}

	if err := ctx.Err(); err != nil {
		return models.IngestResult{}, err
	}
	if err := p.index.ReplaceDocument(ctx, tenantID, docID, entries); err != nil {
		return models.IngestResult{}, err
	}
	if err := p.store.UpsertDocument(ctx, models.Document{
		ID:         docID,
		TenantID:   tenantID,
		SourceName: sourceName,
		ChunkCount: len(entries),
	}); err != nil {
		return models.IngestResult{}, fmt.Errorf("recording document: %w", err)
	}

	log.Info().Str("tenant", tenantID).Str("source", sourceName).
		Int("chunks", len(entries)).Int("embedded", len(pendingTexts)).
		Msg("Ingested document")
	return models.IngestResult{DocumentID: docID, ChunksCreated: len(entries)}, nil
}

// Answer runs the query path: embed, retrieve, gate, and either prompt the
// LLM with grounded context or return the canonical fallback. Upstream
// failures surface as errors, never disguised as the fallback.
func (p *Pipeline) Answer(ctx context.Context, tenantID, question string) (models.Answer, error) {
	tenantID = tenantOrAnonymous(tenantID)

	q := strings.TrimSpace(question)
	if q == "" {
		return models.Answer{Kind: models.KindFailed}, fmt.Errorf("%w: empty question", models.ErrInvalidQuestion)
	}

	vec, err := p.embedder.Embed(ctx, q)
	if err != nil {
		return models.Answer{Kind: models.KindFailed}, err
	}
	result, err := p.retriever.Retrieve(ctx, tenantID, q, vec)
	if err != nil {
		return models.Answer{Kind: models.KindFailed}, err
	}

	state := Decide(q, result, p.cfg.RAG.RelevanceThreshold)
	log.Debug().Str("tenant", tenantID).Stringer("gate", state).
		Float32("best", result.Best()).Int("chunks", len(result.Chunks)).
		Msg("Gate decision")
	if state != GateSufficient {
		return p.finish(ctx, tenantID, q, models.Answer{
			Text:    models.FallbackAnswer,
			Sources: []string{},
			Success: false,
			Kind:    models.KindFallback,
		})
	}

	facts, err := p.store.GetFacts(ctx, tenantID)
	if err != nil {
		return models.Answer{Kind: models.KindFailed}, fmt.Errorf("loading facts: %w", err)
	}
	history, err := p.store.RecentTurns(ctx, tenantID, p.cfg.RAG.MaxHistory)
	if err != nil {
		return models.Answer{Kind: models.KindFailed}, fmt.Errorf("loading history: %w", err)
	}

	prompt := BuildPrompt(PromptInput{
		Question: q,
		Chunks:   result.Chunks,
		Facts:    facts,
		History:  history,
	})
	sources := PromptSources(result.Chunks)

	raw, err := p.llm.GenerateAnswer(ctx, prompt)
	if err != nil {
		return models.Answer{Kind: models.KindFailed}, err
	}

	verdict := p.validator.Validate(raw, result.Chunks)
	answer := models.Answer{Text: raw, Sources: sources, Success: true, Kind: models.KindAnswered}
	if verdict.Refusal || !verdict.Grounded {
		log.Debug().Bool("refusal", verdict.Refusal).Float64("score", verdict.Score).
			Msg("Validation rejected model answer, substituting fallback")
		answer = models.Answer{
			Text:    models.FallbackAnswer,
			Sources: sources,
			Success: false,
			Kind:    models.KindFallback,
		}
	}
	return p.finish(ctx, tenantID, q, answer)
}

// finish records the turn and auto-extracted facts, unless the request was
// already canceled: a canceled query must not leave partial memory writes.
func (p *Pipeline) finish(ctx context.Context, tenantID, question string, answer models.Answer) (models.Answer, error) {
	if err := ctx.Err(); err != nil {
		return models.Answer{Kind: models.KindFailed}, err
	}
	if err := p.store.SaveTurn(ctx, memory.Turn{
		TenantID:   tenantID,
		Question:   question,
		Answer:     answer.Text,
		Sources:    answer.Sources,
		Successful: answer.Success,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to save conversation turn")
	}
	for key, value := range memory.ExtractFacts(question) {
		if err := p.store.SetFact(ctx, tenantID, key, value); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to store extracted fact")
		}
	}
	return answer, nil
}

// RemoveDocument deletes a document's chunks from the index and its
// registry row. Unknown documents are a no-op.
func (p *Pipeline) RemoveDocument(ctx context.Context, tenantID, sourceName string) error {
	tenantID = tenantOrAnonymous(tenantID)
	docID := models.DocumentID(tenantID, sourceName)
	if err := p.index.DeleteDocument(ctx, tenantID, docID); err != nil {
		return err
	}
	return p.store.DeleteDocument(ctx, tenantID, docID)
}

// Stats reports the tenant's persisted counters.
func (p *Pipeline) Stats(ctx context.Context, tenantID string) (models.Stats, error) {
	tenantID = tenantOrAnonymous(tenantID)
	docs, err := p.store.CountDocuments(ctx, tenantID)
	if err != nil {
		return models.Stats{}, err
	}
	total, successful, err := p.store.CountTurns(ctx, tenantID)
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{
		TotalDocuments:          docs,
		TotalConversations:      total,
		SuccessfulConversations: successful,
	}, nil
}

// Memory entry points, delegating to the fact store.

func (p *Pipeline) SetMemory(ctx context.Context, tenantID, key, value string) error {
	return p.store.SetFact(ctx, tenantOrAnonymous(tenantID), key, value)
}

func (p *Pipeline) GetMemories(ctx context.Context, tenantID string) (map[string]string, error) {
	return p.store.GetFacts(ctx, tenantOrAnonymous(tenantID))
}

func (p *Pipeline) DeleteMemory(ctx context.Context, tenantID, key string) error {
	return p.store.DeleteFact(ctx, tenantOrAnonymous(tenantID), key)
}

func (p *Pipeline) ClearMemories(ctx context.Context, tenantID string) error {
	return p.store.ClearFacts(ctx, tenantOrAnonymous(tenantID))
}
