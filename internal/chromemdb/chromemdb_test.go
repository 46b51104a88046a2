package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balashankar-d/PolicyPilot/internal/models"
)

func entry(docID string, seq int, text string, vec []float32) Entry {
	return Entry{
		Chunk: models.Chunk{
			ID:            models.ChunkID(docID, seq),
			DocumentID:    docID,
			SourceName:    "policy.txt",
			SequenceIndex: seq,
			Text:          text,
		},
		Embedding:   vec,
		ContentHash: models.ContentHash(text),
	}
}

func TestAppendAndSearch(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()

	docID := models.DocumentID("acme", "policy.txt")
	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "refund window is fourteen days", []float32{1, 0, 0}),
		entry(docID, 1, "digital goods are non-refundable", []float32{0, 1, 0}),
	}))

	result, err := x.Search(ctx, "acme", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 2)
	assert.Equal(t, "refund window is fourteen days", result.Chunks[0].Chunk.Text)
	assert.Greater(t, result.Chunks[0].Similarity, result.Chunks[1].Similarity)
	assert.Equal(t, docID, result.Chunks[0].Chunk.DocumentID)
	assert.Equal(t, "policy.txt", result.Chunks[0].Chunk.SourceName)
}

func TestSearchUnknownTenantIsEmpty(t *testing.T) {
	x := NewInMemory()
	result, err := x.Search(context.Background(), "nobody", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()

	docID := models.DocumentID("acme", "secret.txt")
	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "acme only material", []float32{1, 0, 0}),
	}))

	other, err := x.Search(ctx, "globex", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.True(t, other.Empty(), "one tenant must never see another tenant's chunks")

	anon, err := x.Search(ctx, "", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.True(t, anon.Empty())
}

func TestAppendIsUpsert(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()
	docID := models.DocumentID("acme", "policy.txt")

	e := entry(docID, 0, "first version", []float32{1, 0, 0})
	require.NoError(t, x.Append(ctx, "acme", []Entry{e}))
	require.NoError(t, x.Append(ctx, "acme", []Entry{e}))
	assert.Equal(t, 1, x.Count("acme"))

	e2 := entry(docID, 0, "second version", []float32{0, 1, 0})
	require.NoError(t, x.Append(ctx, "acme", []Entry{e2}))
	assert.Equal(t, 1, x.Count("acme"))

	result, err := x.Search(ctx, "acme", []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "second version", result.Chunks[0].Chunk.Text)
}

func TestSearchClampsTopK(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()
	docID := models.DocumentID("acme", "policy.txt")
	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "alpha", []float32{1, 0, 0}),
		entry(docID, 1, "beta", []float32{0, 1, 0}),
	}))

	result, err := x.Search(ctx, "acme", []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 2)

	result, err = x.Search(ctx, "acme", []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestReplaceDocumentSwapsChunks(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()
	docID := models.DocumentID("acme", "policy.txt")

	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "old chunk zero", []float32{1, 0, 0}),
		entry(docID, 1, "old chunk one", []float32{0, 1, 0}),
		entry(docID, 2, "old chunk two", []float32{0, 0, 1}),
	}))

	require.NoError(t, x.ReplaceDocument(ctx, "acme", docID, []Entry{
		entry(docID, 0, "new chunk zero", []float32{1, 0, 0}),
		entry(docID, 1, "new chunk one", []float32{0, 1, 0}),
	}))

	assert.Equal(t, 2, x.Count("acme"))
	result, err := x.Search(ctx, "acme", []float32{0, 0, 1}, 5)
	require.NoError(t, err)
	for _, sc := range result.Chunks {
		assert.NotContains(t, sc.Chunk.Text, "old")
	}
}

func TestReplaceDocumentKeepsOtherDocuments(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()
	policyID := models.DocumentID("acme", "policy.txt")
	faqID := models.DocumentID("acme", "faq.txt")

	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(policyID, 0, "policy text", []float32{1, 0, 0}),
	}))
	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(faqID, 0, "faq text", []float32{0, 1, 0}),
	}))

	require.NoError(t, x.ReplaceDocument(ctx, "acme", policyID, []Entry{
		entry(policyID, 0, "revised policy text", []float32{1, 0, 0}),
	}))
	assert.Equal(t, 2, x.Count("acme"))
}

func TestReplaceDocumentFailedWriteKeepsOldVersion(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()
	docID := models.DocumentID("acme", "policy.txt")

	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "old chunk zero", []float32{1, 0, 0}),
		entry(docID, 1, "old chunk one", []float32{0, 1, 0}),
	}))

	// an entry without a chunk id is rejected by the store partway
	// through the batch
	bad := entry(docID, 1, "new chunk one", []float32{0, 1, 0})
	bad.Chunk.ID = ""
	err := x.ReplaceDocument(ctx, "acme", docID, []Entry{
		entry(docID, 0, "new chunk zero", []float32{1, 0, 0}),
		bad,
	})
	require.Error(t, err)

	// the previous chunk set is intact, no partial new version remains
	assert.Equal(t, 2, x.Count("acme"))
	result, serr := x.Search(ctx, "acme", []float32{1, 0, 0}, 5)
	require.NoError(t, serr)
	require.Len(t, result.Chunks, 2)
	for _, sc := range result.Chunks {
		assert.Contains(t, sc.Chunk.Text, "old")
	}
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()
	docID := models.DocumentID("acme", "policy.txt")

	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "to be removed", []float32{1, 0, 0}),
	}))
	require.NoError(t, x.DeleteDocument(ctx, "acme", docID))
	assert.Equal(t, 0, x.Count("acme"))

	// deleting again, or from a tenant with no collection, is a no-op
	require.NoError(t, x.DeleteDocument(ctx, "acme", docID))
	require.NoError(t, x.DeleteDocument(ctx, "never-seen", docID))
}

func TestExisting(t *testing.T) {
	ctx := context.Background()
	x := NewInMemory()
	docID := models.DocumentID("acme", "policy.txt")

	assert.Empty(t, x.Existing(ctx, "acme", docID))

	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "chunk zero", []float32{1, 0, 0}),
		entry(docID, 1, "chunk one", []float32{0, 1, 0}),
	}))

	stored := x.Existing(ctx, "acme", docID)
	require.Len(t, stored, 2)
	zero := stored[models.ChunkID(docID, 0)]
	assert.Equal(t, models.ContentHash("chunk zero"), zero.ContentHash)
	assert.NotEmpty(t, zero.Embedding)
}

func TestPersistentRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	docID := models.DocumentID("acme", "policy.txt")

	x, err := NewPersistent(dir)
	require.NoError(t, err)
	require.NoError(t, x.Append(ctx, "acme", []Entry{
		entry(docID, 0, "persisted chunk", []float32{1, 0, 0}),
	}))

	reopened, err := NewPersistent(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count("acme"))
}
