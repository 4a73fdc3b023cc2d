// Package embeddings defines the embedding provider collaborator and its
// implementations. Embedders must be deterministic for identical input
// under a fixed model version; the vector dimension is constant for a
// given embedder, and swapping embedders requires re-ingesting the corpus.
package embeddings

import "context"

// Embedder maps text to fixed-length numeric vectors.
type Embedder interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimension this embedder produces.
	Dimensions() int

	// Name returns the model name/identifier.
	Name() string
}

// embedOneByOne implements EmbedBatch for providers without a batch API.
func embedOneByOne(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results = append(results, vec)
	}
	return results, nil
}
