// Package chromemdb implements the tenant-scoped vector index on top of
// the embedded chromem-go database. Each tenant owns one collection;
// an operation for tenant T only ever opens tenant T's collection, which
// is what enforces the isolation invariant.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/balashankar-d/PolicyPilot/internal/models"
)

const (
	collectionPrefix = "tenant_"
	compress         = false
)

// metadata keys stored with every chunk
const (
	metaDocumentID = "document_id"
	metaTenantID   = "tenant_id"
	metaSource     = "source"
	metaSequence   = "sequence_index"
	metaHash       = "content_hash"
	metaSpanStart  = "span_start"
	metaSpanEnd    = "span_end"
)

// Entry is one chunk plus its vector, ready for indexing.
type Entry struct {
	Chunk       models.Chunk
	Embedding   []float32
	ContentHash string
}

// Index is the per-tenant persistent vector store. It is safe for
// concurrent use; writes to the same tenant's collection are serialized,
// different tenants append concurrently without coordination.
type Index struct {
	db *chromem.DB

	mu      sync.Mutex
	tenants map[string]*sync.Mutex
}

// NewPersistent opens (or creates) an index persisted under path.
func NewPersistent(path string) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("%w: opening persistent store: %v", models.ErrIndexUnavailable, err)
	}
	return &Index{db: db, tenants: map[string]*sync.Mutex{}}, nil
}

// NewInMemory creates a volatile index, used by tests.
func NewInMemory() *Index {
	return &Index{db: chromem.NewDB(), tenants: map[string]*sync.Mutex{}}
}

func (x *Index) tenantLock(tenantID string) *sync.Mutex {
	x.mu.Lock()
	defer x.mu.Unlock()
	l, ok := x.tenants[tenantID]
	if !ok {
		l = &sync.Mutex{}
		x.tenants[tenantID] = l
	}
	return l
}

func collectionName(tenantID string) string {
	if tenantID == "" {
		tenantID = models.TenantAnonymous
	}
	return collectionPrefix + tenantID
}

// collection returns the tenant's collection, or nil if it was never
// created (no ingestion happened yet).
func (x *Index) collection(tenantID string) *chromem.Collection {
	return x.db.GetCollection(collectionName(tenantID), nil)
}

func (x *Index) getOrCreate(tenantID string) (*chromem.Collection, error) {
	c, err := x.db.GetOrCreateCollection(collectionName(tenantID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening collection: %v", models.ErrIndexUnavailable, err)
	}
	return c, nil
}

// Append upserts entries into the tenant's collection. An entry whose
// chunk id already exists replaces the stored vector, text, and metadata.
func (x *Index) Append(ctx context.Context, tenantID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	lock := x.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()
	return x.add(ctx, tenantID, entries)
}

// ReplaceDocument atomically swaps all chunks of a document: any chunk of
// documentID not present in entries is removed, everything in entries is
// stored. A failed write restores the document's previous chunk set, so a
// partial new version never survives. This is what makes ingestion
// all-or-nothing per document id.
func (x *Index) ReplaceDocument(ctx context.Context, tenantID, documentID string, entries []Entry) error {
	lock := x.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	c, err := x.getOrCreate(tenantID)
	if err != nil {
		return err
	}
	backup := snapshot(ctx, c, documentID)

	if err := c.Delete(ctx, map[string]string{metaDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("%w: deleting stale chunks: %v", models.ErrIndexUnavailable, err)
	}
	if err := x.add(ctx, tenantID, entries); err != nil {
		x.rollback(ctx, c, documentID, backup)
		return err
	}
	return nil
}

// snapshot collects a document's indexed chunks, probed in sequence order
// like Existing.
func snapshot(ctx context.Context, c *chromem.Collection, documentID string) []chromem.Document {
	var docs []chromem.Document
	for seq := 0; ; seq++ {
		doc, err := c.GetByID(ctx, models.ChunkID(documentID, seq))
		if err != nil {
			break
		}
		docs = append(docs, doc)
	}
	return docs
}

// rollback drops whatever the failed write left behind and re-adds the
// snapshot. It runs detached from the caller's cancellation so a canceled
// request still cleans up.
func (x *Index) rollback(ctx context.Context, c *chromem.Collection, documentID string, backup []chromem.Document) {
	rctx := context.WithoutCancel(ctx)
	if err := c.Delete(rctx, map[string]string{metaDocumentID: documentID}, nil); err != nil {
		log.Error().Err(err).Str("document", documentID).Msg("Failed to drop partial chunk set")
		return
	}
	if len(backup) == 0 {
		return
	}
	if err := c.AddDocuments(rctx, backup, runtime.NumCPU()); err != nil {
		log.Error().Err(err).Str("document", documentID).Msg("Failed to restore previous chunk set")
	}
}

func (x *Index) add(ctx context.Context, tenantID string, entries []Entry) error {
	c, err := x.getOrCreate(tenantID)
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, chromem.Document{
			ID:        e.Chunk.ID,
			Content:   e.Chunk.Text,
			Embedding: e.Embedding,
			Metadata: map[string]string{
				metaDocumentID: e.Chunk.DocumentID,
				metaTenantID:   tenantID,
				metaSource:     e.Chunk.SourceName,
				metaSequence:   strconv.Itoa(e.Chunk.SequenceIndex),
				metaHash:       e.ContentHash,
				metaSpanStart:  strconv.Itoa(e.Chunk.Span.Start),
				metaSpanEnd:    strconv.Itoa(e.Chunk.Span.End),
			},
		})
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: adding documents: %v", models.ErrIndexUnavailable, err)
	}
	log.Debug().Str("tenant", tenantID).Int("chunks", len(docs)).Msg("Indexed chunks")
	return nil
}

// Search returns the topK chunks most similar to the query vector, in
// descending similarity, ties broken by sequence index ascending. A tenant
// with no indexed chunks yields an empty result, not an error.
func (x *Index) Search(ctx context.Context, tenantID string, queryVec []float32, topK int) (models.RetrievalResult, error) {
	c := x.collection(tenantID)
	if c == nil || topK <= 0 {
		return models.RetrievalResult{}, nil
	}
	n := c.Count()
	if n == 0 {
		return models.RetrievalResult{}, nil
	}
	if topK > n {
		topK = n
	}

	results, err := c.QueryEmbedding(ctx, queryVec, topK, nil, nil)
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("%w: querying: %v", models.ErrIndexUnavailable, err)
	}

	scored := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		scored = append(scored, models.ScoredChunk{
			Chunk:      chunkFromResult(r),
			Similarity: r.Similarity,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Chunk.SequenceIndex < scored[j].Chunk.SequenceIndex
	})
	return models.RetrievalResult{Chunks: scored}, nil
}

// DeleteDocument removes all chunks of a document from the tenant's
// collection. It is a no-op when the document has no indexed chunks.
func (x *Index) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	lock := x.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	c := x.collection(tenantID)
	if c == nil {
		return nil
	}
	if err := c.Delete(ctx, map[string]string{metaDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("%w: deleting document: %v", models.ErrIndexUnavailable, err)
	}
	return nil
}

// Count reports how many chunks are indexed for the tenant.
func (x *Index) Count(tenantID string) int {
	c := x.collection(tenantID)
	if c == nil {
		return 0
	}
	return c.Count()
}

// Stored describes a chunk already present in the index.
type Stored struct {
	ContentHash string
	Embedding   []float32
}

// Existing returns chunkID -> stored state for every indexed chunk of a
// document. Chunk ids are sequential per document, so stored chunks are
// probed in sequence order until the first gap. The embeddings let
// re-ingestion skip re-embedding unchanged chunks.
func (x *Index) Existing(ctx context.Context, tenantID, documentID string) map[string]Stored {
	c := x.collection(tenantID)
	if c == nil {
		return nil
	}
	stored := map[string]Stored{}
	for seq := 0; ; seq++ {
		id := models.ChunkID(documentID, seq)
		doc, err := c.GetByID(ctx, id)
		if err != nil {
			break
		}
		stored[id] = Stored{ContentHash: doc.Metadata[metaHash], Embedding: doc.Embedding}
	}
	return stored
}

func chunkFromResult(r chromem.Result) models.Chunk {
	seq, _ := strconv.Atoi(r.Metadata[metaSequence])
	start, _ := strconv.Atoi(r.Metadata[metaSpanStart])
	end, _ := strconv.Atoi(r.Metadata[metaSpanEnd])
	return models.Chunk{
		ID:            r.ID,
		DocumentID:    r.Metadata[metaDocumentID],
		TenantID:      r.Metadata[metaTenantID],
		SourceName:    r.Metadata[metaSource],
		SequenceIndex: seq,
		Text:          r.Content,
		Span:          models.CharSpan{Start: start, End: end},
	}
}
