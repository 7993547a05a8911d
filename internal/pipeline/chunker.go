package pipeline

import (
	"fmt"
	"strings"
)

// Chunker splits normalized text into overlapping word windows. Overlap
// keeps sentences that straddle a boundary retrievable from both sides.
type Chunker struct {
	window  int
	overlap int
}

// NewChunker validates the window geometry. The overlap must be smaller
// than the window or the split would never advance.
func NewChunker(window, overlap int) (*Chunker, error) {
	if window <= 0 {
		return nil, fmt.Errorf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("chunk overlap must be in [0, window), got %d with window %d", overlap, window)
	}
	return &Chunker{window: window, overlap: overlap}, nil
}

// Chunk splits text into word windows of the configured size. Each window
// after the first repeats the last overlap words of its predecessor.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	step := c.window - c.overlap
	for i := 0; i < len(words); i += step {
		end := i + c.window
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
