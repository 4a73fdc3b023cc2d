package vectordb

import "time"

// Passage is a bounded slice of a source document, the unit of retrieval.
// Passages are owned by their document: re-ingesting a document replaces
// all of its passages.
type Passage struct {
	ID         string
	DocumentID string
	Ordinal    int
	Text       string
	Source     string
	IngestedAt time.Time
}

// Result pairs a passage with its relevance score as reported by the
// index's native similarity metric (cosine for chromem).
type Result struct {
	Passage Passage
	Score   float32
}
