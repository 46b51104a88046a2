package memory

import (
	"regexp"
	"strings"
)

// Fact auto-extraction from free-text user messages. The patterns are a
// deliberate heuristic: anything smarter belongs to an external NLP step,
// this only feeds the storage contract.
var extractPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"name", regexp.MustCompile(`(?i)\bmy name is ([a-z][a-z'-]*)`)},
	{"name", regexp.MustCompile(`(?i)\bcall me ([a-z][a-z'-]*)`)},
	{"preferred_language", regexp.MustCompile(`(?i)\bi prefer (?:to read |to speak |speaking |reading )?([a-z]{2,20}) ?(?:language)?\b`)},
	{"location", regexp.MustCompile(`(?i)\bi live in ([a-z][a-z'-]*(?: [a-z][a-z'-]*){0,2})`)},
	{"occupation", regexp.MustCompile(`(?i)\bi work as an? ([a-z][a-z'-]*(?: [a-z][a-z'-]*)?)`)},
}

// ExtractFacts scans a user message for personal statements and returns
// them as key/value facts. An empty map means nothing was found.
func ExtractFacts(message string) map[string]string {
	facts := map[string]string{}
	for _, p := range extractPatterns {
		if _, done := facts[p.key]; done {
			continue
		}
		m := p.re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(strings.Trim(m[1], " .,!?"))
		if value != "" {
			facts[p.key] = value
		}
	}
	return facts
}
