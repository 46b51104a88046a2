package helper

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"a an the is are was were be been being have has had do does did " +
			"will would shall should may might must can could i me my we our " +
			"you your he him his she her it its they them their what which " +
			"who whom this that these those am at by for with about against " +
			"between through during before after above below to from up down " +
			"in out on off over under again further then once here there " +
			"when where why how all both each few more most other some such " +
			"no nor not only own same so than too very just don now also of " +
			"and or but if") {
		stopWords[w] = struct{}{}
	}
}

// ContentWords extracts lowercased meaningful words: stop words and
// tokens shorter than three characters are dropped.
func ContentWords(text string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) <= 2 {
			continue
		}
		if _, skip := stopWords[t]; skip {
			continue
		}
		out = append(out, t)
	}
	return out
}

// WordSet is ContentWords collected into a set.
func WordSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range ContentWords(text) {
		set[w] = struct{}{}
	}
	return set
}
