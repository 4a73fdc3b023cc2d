// Package retriever turns a user query into the passages most relevant
// to it: embed the query, search the index, filter weak matches.
package retriever

import (
	"context"
	"fmt"

	"github.com/otto-edu/otto/internal/embeddings"
	"github.com/otto-edu/otto/internal/vectordb"
)

// Retriever performs semantic search over the knowledge index.
type Retriever struct {
	embedder embeddings.Embedder
	index    vectordb.Index
	minScore float32
}

// New creates a Retriever. With a positive minScore, results scoring
// below it are dropped; a minScore of 0 disables filtering entirely,
// keeping everything the index returns. Similarity scores can be
// negative, so the unconfigured case must not filter.
func New(embedder embeddings.Embedder, index vectordb.Index, minScore float32) *Retriever {
	return &Retriever{embedder: embedder, index: index, minScore: minScore}
}

// Retrieve returns up to topK passages ranked by similarity to query,
// highest first. An empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]vectordb.Result, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.index.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	if r.minScore <= 0 {
		return results, nil
	}

	filtered := results[:0]
	for _, res := range results {
		if res.Score >= r.minScore {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}
