package models

import "time"

// TenantAnonymous is the shared tenant used when no authenticated
// principal is resolved by the caller.
const TenantAnonymous = "anonymous"

// Document represents one ingested source owned by a tenant.
type Document struct {
	ID         string
	TenantID   string
	SourceName string
	ChunkCount int
	CreatedAt  time.Time
}

// CharSpan is the [Start, End) character range of a chunk within the
// normalized document text.
type CharSpan struct {
	Start int
	End   int
}

// Chunk is a bounded contiguous slice of a document's text, the unit of
// retrieval. ID is deterministic per (document, sequence) so re-ingesting
// the same document overwrites its chunks instead of duplicating them.
type Chunk struct {
	ID            string
	DocumentID    string
	TenantID      string
	SourceName    string
	SequenceIndex int
	Text          string
	Span          CharSpan
}

// ScoredChunk pairs a retrieved chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk      Chunk
	Similarity float32
}

// RetrievalResult is an ordered sequence of scored chunks, most relevant
// first. Re-ranking may reorder chunks away from raw similarity order, so
// position carries no similarity guarantee. May be empty.
type RetrievalResult struct {
	Chunks []ScoredChunk
}

// Empty reports whether nothing was retrieved.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// Best returns the highest similarity in the result, or 0 when empty.
func (r RetrievalResult) Best() float32 {
	var best float32
	for i, sc := range r.Chunks {
		if i == 0 || sc.Similarity > best {
			best = sc.Similarity
		}
	}
	return best
}

// ResultKind tags how an answer was produced, so callers never have to
// compare answer text against the fallback sentence.
type ResultKind int

const (
	// KindAnswered means the model produced a grounded answer.
	KindAnswered ResultKind = iota
	// KindFallback means the canonical fallback sentence was returned,
	// either because the gate stopped early or validation rejected the
	// model's answer.
	KindFallback
	// KindFailed means the request could not be processed at all.
	KindFailed
)

func (k ResultKind) String() string {
	switch k {
	case KindAnswered:
		return "answered"
	case KindFallback:
		return "fallback"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Answer is the outcome of one query through the pipeline.
type Answer struct {
	Text    string
	Sources []string
	Success bool
	Kind    ResultKind
}

// IngestResult reports what an ingestion created.
type IngestResult struct {
	DocumentID    string
	ChunksCreated int
}

// Stats summarizes a tenant's persisted activity.
type Stats struct {
	TotalDocuments          int
	TotalConversations      int
	SuccessfulConversations int
}
