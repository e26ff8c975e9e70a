// Package chunker splits document text into overlapping chunks.
package chunker

import (
	"fmt"
	"iter"
	"unicode"

	"github.com/hyperjump/yomu/internal/models"
)

// separators in order of preference. The chunk ends right after the separator.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
}

// Chunker splits text into chunks of at most size runes. Consecutive chunks
// share exactly overlap runes.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. overlap must be non-negative and smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of runes shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunks returns the chunks of text in document order. The sequence is lazy
// and can be ranged over any number of times. Empty text yields nothing.
func (c *Chunker) Chunks(text string) iter.Seq[models.Chunk] {
	return func(yield func(models.Chunk) bool) {
		runes := []rune(text)
		n := len(runes)
		start, index := 0, 0
		for start < n {
			end := n
			if n-start > c.size {
				end = c.breakPoint(runes, start)
			}
			chunk := models.Chunk{
				Index: index,
				Start: start,
				End:   end,
				Text:  string(runes[start:end]),
			}
			if !yield(chunk) || end == n {
				return
			}
			start = end - c.overlap
			index++
		}
	}
}

// Split returns all chunks of text.
func (c *Chunker) Split(text string) []models.Chunk {
	var chunks []models.Chunk
	for chunk := range c.Chunks(text) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// breakPoint picks the end of the chunk starting at start. The result is in
// (start+overlap, start+size] so the next chunk always advances. Breaks in the
// upper half of the window are tried first, then anywhere in range, then the
// hard limit.
func (c *Chunker) breakPoint(runes []rune, start int) int {
	hi := start + c.size
	lo := start + c.overlap + 1
	if half := start + c.size/2; half > lo {
		if p := findBreak(runes, start, half, hi); p > 0 {
			return p
		}
	}
	if p := findBreak(runes, start, lo, hi); p > 0 {
		return p
	}
	return hi
}

// findBreak returns the largest p in [lo, hi] that ends a separator lying
// entirely after start, trying separators in order of preference, then any
// whitespace. Returns 0 when there is none.
func findBreak(runes []rune, start, lo, hi int) int {
	for _, sep := range separators {
		for p := hi; p >= lo; p-- {
			if p-len(sep) >= start && hasSuffixAt(runes, p, sep) {
				return p
			}
		}
	}
	for p := hi; p >= lo; p-- {
		if p-1 >= start && unicode.IsSpace(runes[p-1]) {
			return p
		}
	}
	return 0
}

func hasSuffixAt(runes []rune, p int, sep []rune) bool {
	for i := range sep {
		if runes[p-len(sep)+i] != sep[i] {
			return false
		}
	}
	return true
}
