// Package chunker splits normalized document text into overlapping pieces
// bounded by a character budget. Splitting is deterministic: the same text
// and configuration always produce the same piece sequence, which is what
// makes re-ingestion idempotent.
package chunker

import (
	"strings"
	"unicode"
)

// Piece is one chunk of text with its character span in the input.
type Piece struct {
	Text  string
	Start int
	End   int
}

// Chunker splits text into pieces of at most Size runes with Overlap runes
// shared between consecutive pieces.
type Chunker struct {
	size    int
	overlap int
}

const (
	defaultSize    = 500
	defaultOverlap = 50
)

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks text into pieces. Splits prefer paragraph breaks, then
// sentence ends, then line breaks, then spaces, falling back to a hard cut
// when no boundary exists in the back half of the window. Text no longer
// than the chunk size yields exactly one piece; empty or all-whitespace
// text yields none. Each piece's span delimits exactly its trimmed text
// within the input.
func (c *Chunker) Split(text string) []Piece {
	runes := []rune(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(runes) <= c.size {
		return []Piece{makePiece(runes, 0, len(runes))}
	}

	var pieces []Piece
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = splitPoint(runes, start, end)
		}

		if p := makePiece(runes, start, end); p.Text != "" {
			pieces = append(pieces, p)
		}

		if end == len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}

// makePiece trims whitespace off the window edges and records the span of
// what is left, so Text == input[Start:End] in runes.
func makePiece(runes []rune, start, end int) Piece {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return Piece{Text: string(runes[start:end]), Start: start, End: end}
}

// splitPoint looks for the best boundary inside the window [start, end).
// Boundaries in the front half of the window are ignored so pieces do not
// collapse to fragments.
func splitPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	min := len([]rune(window)) / 2

	for _, sep := range []string{"\n\n", ". ", "! ", "? ", "\n", " "} {
		if idx := lastRuneIndex(window, sep); idx >= min {
			cut := idx
			if sep != "\n\n" && sep != "\n" {
				// keep the sentence terminator with the leading piece
				cut += len([]rune(sep)) - 1
			}
			return start + cut + 1
		}
	}
	return end
}

// lastRuneIndex is strings.LastIndex with the result converted from a byte
// offset to a rune offset.
func lastRuneIndex(s, sep string) int {
	b := strings.LastIndex(s, sep)
	if b < 0 {
		return -1
	}
	return len([]rune(s[:b]))
}
