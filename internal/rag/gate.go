package rag

import (
	"strings"

	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// GateState is the groundedness decision for one query. NoEvidence and
// Insufficient are terminal: the pipeline returns the fallback answer and
// the LLM is never invoked.
type GateState int

const (
	// GateNoEvidence - nothing was retrieved at all.
	GateNoEvidence GateState = iota
	// GateInsufficient - evidence exists but the best similarity is below
	// the relevance threshold, or the question is empty.
	GateInsufficient
	// GateSufficient - evidence clears the threshold; proceed to the LLM.
	GateSufficient
)

func (s GateState) String() string {
	switch s {
	case GateNoEvidence:
		return "no_evidence"
	case GateInsufficient:
		return "insufficient"
	case GateSufficient:
		return "sufficient"
	default:
		return "unknown"
	}
}

// Decide runs the gate over a retrieval result. threshold is the tunable
// relevance cut-off from configuration.
func Decide(question string, result models.RetrievalResult, threshold float32) GateState {
	if result.Empty() {
		return GateNoEvidence
	}
	if strings.TrimSpace(question) == "" {
		return GateInsufficient
	}
	if result.Best() < threshold {
		return GateInsufficient
	}
	return GateSufficient
}
