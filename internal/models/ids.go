package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DocumentID derives the deterministic id for a (tenant, source) pair.
// Re-ingesting the same source under the same tenant therefore addresses
// the same document and overwrites its chunks.
func DocumentID(tenantID, sourceName string) string {
	sum := sha256.Sum256([]byte(tenantID + "\x00" + sourceName))
	return hex.EncodeToString(sum[:8])
}

// ChunkID derives the deterministic id of the chunk at sequenceIndex
// within a document.
func ChunkID(documentID string, sequenceIndex int) string {
	return fmt.Sprintf("%s-%d", documentID, sequenceIndex)
}

// ContentHash fingerprints chunk text so unchanged chunks are not
// re-embedded on re-ingestion.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}
