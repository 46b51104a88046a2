package models

import "errors"

// Error taxonomy for the core. Callers distinguish "the documents don't
// answer this" (a fallback Answer) from "the system could not process
// this request" (one of these errors) with errors.Is.
var (
	// ErrEmptyDocument means no extractable text was provided for ingestion.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrEmbeddingUnavailable means the embedding capability failed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable means the vector index storage failed.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrUpstreamTimeout means an embedding or LLM call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream call timed out")

	// ErrUpstreamError means the LLM capability failed.
	ErrUpstreamError = errors.New("upstream LLM error")

	// ErrInvalidQuestion means the question was empty or otherwise unusable.
	ErrInvalidQuestion = errors.New("invalid question")
)
