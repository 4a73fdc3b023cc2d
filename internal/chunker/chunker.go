// Package chunker splits raw document text into overlapping passages
// suitable for embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"
)

// ErrInvalidChunking indicates a chunk size / overlap combination that
// violates 0 < overlap < size. It is a startup configuration error.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunk splits text into passages of at most size characters, each
// consecutive pair sharing overlap characters. Size and overlap count
// runes, not bytes, so a passage boundary never falls inside a multibyte
// character. Every character of the input appears in at least one
// passage, and the output is deterministic for identical input and
// parameters.
//
// Input shorter than or equal to size yields exactly one passage equal
// to the whole input.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunking, size)
	}
	if overlap <= 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 < overlap < size, got overlap=%d size=%d", ErrInvalidChunking, overlap, size)
	}

	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	stride := size - overlap
	passages := make([]string, 0, len(runes)/stride+1)
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		passages = append(passages, string(runes[start:end]))
	}
	return passages, nil
}

// Count returns the number of passages Chunk produces for a text of the
// given length in characters, without allocating them.
func Count(textLen, size, overlap int) int {
	if textLen == 0 {
		return 0
	}
	if textLen <= size {
		return 1
	}
	stride := size - overlap
	return (textLen-1)/stride + 1
}
