// Package vectordb provides the vector index collaborator: storage of
// (vector, passage, metadata) tuples with nearest-neighbor query.
package vectordb

import "context"

// Index stores embedded passages and answers nearest-neighbor queries.
// Implementations are safe for concurrent reads; ingestion (the only
// writer) is expected to run as a batch job serialized by operational
// convention, not by an in-process lock.
type Index interface {
	// Upsert writes passages with their precomputed embedding vectors.
	// vectors[i] corresponds to passages[i]; all vectors must share the
	// index's dimension.
	Upsert(ctx context.Context, passages []Passage, vectors [][]float32) error

	// DeleteByDocument removes every passage belonging to the document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Query returns up to topK passages nearest to the query vector,
	// ordered by descending score.
	Query(ctx context.Context, vector []float32, topK int) ([]Result, error)

	// Count returns the total number of stored passages.
	Count() int

	// Persist saves the index to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from the given directory.
	Load(ctx context.Context, dir string) error
}
