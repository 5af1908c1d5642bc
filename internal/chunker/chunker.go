// Package chunker splits normalized document text into overlapping segments
// that preserve semantic boundaries where possible.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// separators are tried in priority order when choosing a chunk boundary:
// paragraph break, line break, sentence terminator, whitespace. When none
// falls inside the window the chunk is hard-cut at the size limit.
var separators = []string{"\n\n", "\n", ". ", " "}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits text into chunks of at most Size characters, with
// consecutive chunks sharing Overlap characters of trailing context.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Non-positive size falls back to the default;
// overlap is clamped below size.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split breaks text into an ordered sequence of chunks. Empty input yields
// an empty sequence. Split never fails: when no separator falls inside a
// window it degrades to a hard character cut.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := c.findCut(text, start, end)
		chunks = append(chunks, text[start:cut])

		// Step back by the overlap so the next chunk repeats trailing
		// context, but always make forward progress.
		next := runeStart(text, cut-c.overlap)
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut returns the end position for a chunk starting at start, preferring
// the highest-priority separator whose cut still advances past the overlap
// region. Falls back to a hard cut at end.
func (c *Chunker) findCut(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + idx + len(sep)
		if cut > start+c.overlap {
			return cut
		}
	}
	if cut := runeStart(text, end); cut > start {
		return cut
	}
	return end
}

// runeStart backs i off to the start of the UTF-8 sequence containing
// text[i], so slicing at i never splits a multi-byte rune
func runeStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// Size returns the configured maximum chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap between consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }
