// Package chunker splits raw text into overlapping word-bounded segments
// for retrieval. Overlap preserves context continuity: the trailing words
// of one chunk reappear at the head of the next.
package chunker

import (
	"fmt"
	"strings"
)

// Chunker splits text into overlapping bounded-size segments.
//
// Size and overlap are measured in words, not bytes. The same input and
// parameters always yield the same chunk sequence.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Size must be positive and overlap must be
// smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, size), got %d for size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split splits text into chunks of at most c.size words, advancing by
// size-overlap words per chunk. Text of c.size words or fewer comes back
// as a single chunk. Every returned chunk is non-empty.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= c.size {
		return []string{strings.Join(words, " ")}
	}

	stride := c.size - c.overlap
	chunks := make([]string, 0, (len(words)+stride-1)/stride)
	for start := 0; start < len(words); start += stride {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Size returns the configured chunk size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }
