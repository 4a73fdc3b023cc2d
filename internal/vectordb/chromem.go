package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "knowledge"

// errPrecomputedOnly guards against chromem asking for an embedding: the
// ingestion pipeline always supplies vectors, so the store never embeds.
var errPrecomputedOnly = errors.New("vectordb: embeddings must be precomputed")

// ChromemIndex implements Index using chromem-go with an in-memory
// collection and gob-file persistence.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemIndex creates a new in-memory ChromemIndex.
func NewChromemIndex() (*ChromemIndex, error) {
	db := chromem.NewDB()
	ef := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errPrecomputedOnly
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemIndex{db: db, collection: col, embedFunc: ef}, nil
}

func (s *ChromemIndex) Upsert(ctx context.Context, passages []Passage, vectors [][]float32) error {
	if len(passages) == 0 {
		return nil
	}
	if len(passages) != len(vectors) {
		return fmt.Errorf("vectordb: %d passages but %d vectors", len(passages), len(vectors))
	}

	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Text,
			Embedding: vectors[i],
			Metadata:  metadataFromPassage(p),
		}
	}

	return s.collection.AddDocuments(ctx, docs, 1)
}

func (s *ChromemIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	where := map[string]string{"document_id": documentID}
	return s.collection.Delete(ctx, where, nil)
}

func (s *ChromemIndex) Query(ctx context.Context, vector []float32, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			Passage: passageFromResult(r.ID, r.Content, r.Metadata),
			Score:   r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemIndex) Count() int {
	return s.collection.Count()
}

func (s *ChromemIndex) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(dir+"/index.gob.gz", true, "")
}

func (s *ChromemIndex) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(dir+"/index.gob.gz", ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

// metadataFromPassage flattens passage attributes into the string map
// chromem stores alongside each document.
func metadataFromPassage(p Passage) map[string]string {
	return map[string]string{
		"document_id": p.DocumentID,
		"ordinal":     strconv.Itoa(p.Ordinal),
		"source":      p.Source,
		"ingested_at": p.IngestedAt.Format(time.RFC3339),
	}
}

func passageFromResult(id, text string, m map[string]string) Passage {
	ordinal, _ := strconv.Atoi(m["ordinal"])
	ingestedAt, _ := time.Parse(time.RFC3339, m["ingested_at"])
	return Passage{
		ID:         id,
		DocumentID: m["document_id"],
		Ordinal:    ordinal,
		Text:       text,
		Source:     m["source"],
		IngestedAt: ingestedAt,
	}
}
