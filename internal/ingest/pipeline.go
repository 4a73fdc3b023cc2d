// Package ingest populates the vector index from source documents:
// validate, chunk, embed, then replace the document's passages as a unit.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/otto-edu/otto/internal/chunker"
	"github.com/otto-edu/otto/internal/embeddings"
	"github.com/otto-edu/otto/internal/vectordb"
)

// ErrEmptyDocument indicates a document with no text to ingest.
var ErrEmptyDocument = errors.New("document has no text")

// IngestionError reports an aborted ingestion. The document's previous
// passages are unchanged unless Stage is "store".
type IngestionError struct {
	DocumentID string
	Stage      string // "validate", "chunk", "embed", "replace", "store"
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingesting document %s (%s): %v", e.DocumentID, e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// ProgressFunc is called after each document finishes (or fails).
type ProgressFunc func(doc Document, passages int, err error)

// Pipeline drives chunking, embedding and index writes.
type Pipeline struct {
	embedder  embeddings.Embedder
	index     vectordb.Index
	chunkSize int
	overlap   int
}

// NewPipeline creates a Pipeline. Chunk parameters are validated here so
// an invalid configuration fails at startup rather than per document.
func NewPipeline(embedder embeddings.Embedder, index vectordb.Index, chunkSize, overlap int) (*Pipeline, error) {
	if _, err := chunker.Chunk("probe", chunkSize, overlap); err != nil {
		return nil, err
	}
	return &Pipeline{
		embedder:  embedder,
		index:     index,
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Ingest chunks and embeds one document and replaces its passages in the
// index. It returns the number of passages written.
//
// All passages are embedded before anything is written: an embedding
// failure aborts the whole document and leaves the index untouched.
// Ingest does not retry; retry policy belongs to the caller. Calling
// Ingest twice with the same document ID is idempotent.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) (int, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return 0, &IngestionError{DocumentID: doc.ID, Stage: "validate", Err: ErrEmptyDocument}
	}

	texts, err := chunker.Chunk(doc.Text, p.chunkSize, p.overlap)
	if err != nil {
		return 0, &IngestionError{DocumentID: doc.ID, Stage: "chunk", Err: err}
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, &IngestionError{DocumentID: doc.ID, Stage: "embed", Err: err}
	}

	if err := p.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return 0, &IngestionError{DocumentID: doc.ID, Stage: "replace", Err: err}
	}

	ingestedAt := doc.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}
	passages := make([]vectordb.Passage, len(texts))
	for i, text := range texts {
		passages[i] = vectordb.Passage{
			ID:         fmt.Sprintf("%s#%04d", doc.ID, i),
			DocumentID: doc.ID,
			Ordinal:    i,
			Text:       text,
			Source:     doc.Source,
			IngestedAt: ingestedAt,
		}
	}

	if err := p.index.Upsert(ctx, passages, vectors); err != nil {
		return 0, &IngestionError{DocumentID: doc.ID, Stage: "store", Err: err}
	}

	return len(passages), nil
}

// IngestAll ingests documents with bounded concurrency, invoking
// onProgress per document. It returns the total passages written and the
// per-document errors; documents are independent, so one failure does
// not stop the batch.
func (p *Pipeline) IngestAll(ctx context.Context, docs []Document, concurrency int, onProgress ProgressFunc) (int, []error) {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu    sync.Mutex
		total int
		errs  []error
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, doc := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(doc Document) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := p.Ingest(ctx, doc)

			mu.Lock()
			if err != nil {
				errs = append(errs, err)
			} else {
				total += n
			}
			mu.Unlock()

			if onProgress != nil {
				onProgress(doc, n, err)
			}
		}(doc)
	}

	wg.Wait()
	return total, errs
}
