package rag

import (
	"regexp"
	"strings"

	"github.com/balashankar-d/PolicyPilot/internal/helper"
	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// refusal phrasings the model may use instead of the exact fallback
// sentence; they count as a valid refusal, not as a grounded answer.
var refusalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sorry.*document.*does\s+not\s+contain`),
	regexp.MustCompile(`(?i)sorry.*doesn.t\s+contain\s+enough`),
	regexp.MustCompile(`(?i)i\s+don.t\s+have\s+enough\s+information`),
	regexp.MustCompile(`(?i)the\s+(provided\s+)?documents?.*do(es)?\s+not\s+(mention|contain|include)`),
	regexp.MustCompile(`(?i)cannot\s+answer.*based\s+on.*provided`),
}

// Verdict is the outcome of post-hoc answer validation.
type Verdict struct {
	// Grounded reports whether the answer shares enough content words
	// with the prompted chunks.
	Grounded bool
	// Refusal reports that the model itself declined to answer.
	Refusal bool
	// Score is the content-word overlap ratio in [0,1].
	Score float64
}

// Validator runs the lightweight grounding check over a generated answer.
// The check is deliberately cheap: a keyword-overlap ratio against the
// evidence the prompt contained.
type Validator struct {
	// MinGrounding is the minimum overlap ratio; 0 disables the check.
	MinGrounding float64
	// MinAnswerLength rejects trivially short answers.
	MinAnswerLength int
}

func (v Validator) Validate(answer string, chunks []models.ScoredChunk) Verdict {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" || len(trimmed) < v.MinAnswerLength {
		return Verdict{}
	}
	if trimmed == models.FallbackAnswer || isRefusal(trimmed) {
		return Verdict{Refusal: true}
	}

	score := groundingScore(trimmed, chunks)
	grounded := v.MinGrounding <= 0 || score >= v.MinGrounding
	return Verdict{Grounded: grounded, Score: score}
}

func isRefusal(answer string) bool {
	for _, p := range refusalPatterns {
		if p.MatchString(answer) {
			return true
		}
	}
	return false
}

// groundingScore is the fraction of the answer's content words that also
// appear in at least one evidence chunk.
func groundingScore(answer string, chunks []models.ScoredChunk) float64 {
	answerWords := helper.ContentWords(answer)
	if len(answerWords) == 0 {
		return 0
	}
	corpus := map[string]struct{}{}
	for _, sc := range chunks {
		for _, w := range helper.ContentWords(sc.Chunk.Text) {
			corpus[w] = struct{}{}
		}
	}
	if len(corpus) == 0 {
		return 0
	}
	overlap := 0
	seen := map[string]struct{}{}
	for _, w := range answerWords {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := corpus[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(seen))
}
