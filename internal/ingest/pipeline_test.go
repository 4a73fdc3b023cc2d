package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/otto-edu/otto/internal/vectordb"
)

// --- Mock Embedder ---

type mockEmbedder struct {
	failAfter int // fail when more than failAfter texts are requested; -1 never fails
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.failAfter >= 0 && len(texts) > m.failAfter {
		return nil, errors.New("embedding provider unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, 8)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return 8 }
func (m *mockEmbedder) Name() string    { return "mock" }

// --- Mock Index ---

type mockIndex struct {
	mu       sync.Mutex
	passages map[string][]vectordb.Passage // by document ID
	deletes  []string
}

func newMockIndex() *mockIndex {
	return &mockIndex{passages: make(map[string][]vectordb.Passage)}
}

func (m *mockIndex) Upsert(_ context.Context, passages []vectordb.Passage, vectors [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range passages {
		m.passages[p.DocumentID] = append(m.passages[p.DocumentID], p)
	}
	return nil
}

func (m *mockIndex) DeleteByDocument(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, docID)
	delete(m.passages, docID)
	return nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, _ int) ([]vectordb.Result, error) {
	return nil, nil
}

func (m *mockIndex) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ps := range m.passages {
		n += len(ps)
	}
	return n
}

func (m *mockIndex) Persist(_ context.Context, _ string) error { return nil }
func (m *mockIndex) Load(_ context.Context, _ string) error    { return nil }

// --- Tests ---

func TestIngest_WritesExpectedPassages(t *testing.T) {
	idx := newMockIndex()
	p, err := NewPipeline(&mockEmbedder{failAfter: -1}, idx, 500, 50)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	doc := Document{ID: "bncc-1", Source: "bncc.txt", Text: strings.Repeat("x", 5000)}
	n, err := p.Ingest(context.Background(), doc)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 12 {
		t.Fatalf("expected 12 passages written, got %d", n)
	}
	if idx.Count() != 12 {
		t.Fatalf("index holds %d passages, want 12", idx.Count())
	}

	for i, passage := range idx.passages["bncc-1"] {
		if passage.Ordinal != i {
			t.Errorf("passage %d has ordinal %d", i, passage.Ordinal)
		}
		if passage.DocumentID != "bncc-1" {
			t.Errorf("passage %d has document ID %q", i, passage.DocumentID)
		}
		if passage.IngestedAt.IsZero() {
			t.Errorf("passage %d missing ingestion timestamp", i)
		}
	}
}

func TestIngest_Idempotent(t *testing.T) {
	idx := newMockIndex()
	p, err := NewPipeline(&mockEmbedder{failAfter: -1}, idx, 500, 50)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	doc := Document{ID: "bncc-1", Source: "bncc.txt", Text: strings.Repeat("x", 2000)}
	first, err := p.Ingest(context.Background(), doc)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := p.Ingest(context.Background(), doc)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if first != second {
		t.Errorf("passage counts differ across identical ingests: %d vs %d", first, second)
	}
	if idx.Count() != first {
		t.Errorf("re-ingest duplicated passages: index holds %d, want %d", idx.Count(), first)
	}
}

func TestIngest_ReplaceUsesLatestContent(t *testing.T) {
	idx := newMockIndex()
	p, err := NewPipeline(&mockEmbedder{failAfter: -1}, idx, 100, 20)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	ctx := context.Background()
	if _, err := p.Ingest(ctx, Document{ID: "d", Text: strings.Repeat("a", 400)}); err != nil {
		t.Fatalf("Ingest v1: %v", err)
	}
	if _, err := p.Ingest(ctx, Document{ID: "d", Text: "short replacement"}); err != nil {
		t.Fatalf("Ingest v2: %v", err)
	}

	got := idx.passages["d"]
	if len(got) != 1 || got[0].Text != "short replacement" {
		t.Fatalf("index does not reflect latest content: %+v", got)
	}
}

func TestIngest_EmptyDocument(t *testing.T) {
	p, err := NewPipeline(&mockEmbedder{failAfter: -1}, newMockIndex(), 500, 50)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, err = p.Ingest(context.Background(), Document{ID: "empty", Text: "   \n"})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	var ie *IngestionError
	if !errors.As(err, &ie) || ie.Stage != "validate" {
		t.Errorf("expected validate-stage IngestionError, got %v", err)
	}
}

func TestIngest_EmbeddingFailureLeavesIndexUntouched(t *testing.T) {
	idx := newMockIndex()
	// Pre-populate with the old version of the document.
	p, err := NewPipeline(&mockEmbedder{failAfter: -1}, idx, 500, 50)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := p.Ingest(context.Background(), Document{ID: "d", Text: strings.Repeat("a", 1000)}); err != nil {
		t.Fatalf("seed Ingest: %v", err)
	}
	before := idx.Count()

	failing, err := NewPipeline(&mockEmbedder{failAfter: 0}, idx, 500, 50)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	_, err = failing.Ingest(context.Background(), Document{ID: "d", Text: strings.Repeat("b", 1000)})

	var ie *IngestionError
	if !errors.As(err, &ie) || ie.Stage != "embed" {
		t.Fatalf("expected embed-stage IngestionError, got %v", err)
	}
	if idx.Count() != before {
		t.Errorf("index changed on aborted ingestion: %d -> %d", before, idx.Count())
	}
	if len(idx.deletes) != 1 {
		t.Errorf("aborted ingestion should not delete old passages, deletes=%v", idx.deletes)
	}
}

func TestNewPipeline_InvalidChunking(t *testing.T) {
	if _, err := NewPipeline(&mockEmbedder{failAfter: -1}, newMockIndex(), 100, 100); err == nil {
		t.Fatal("expected configuration error for overlap == size")
	}
}

func TestIngestAll_ContinuesPastFailures(t *testing.T) {
	idx := newMockIndex()
	p, err := NewPipeline(&mockEmbedder{failAfter: -1}, idx, 500, 50)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	docs := []Document{
		{ID: "a", Text: strings.Repeat("x", 600)},
		{ID: "b", Text: ""},
		{ID: "c", Text: strings.Repeat("y", 600)},
	}

	var mu sync.Mutex
	var seen []string
	total, errs := p.IngestAll(context.Background(), docs, 2, func(doc Document, n int, err error) {
		mu.Lock()
		seen = append(seen, doc.ID)
		mu.Unlock()
	})

	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if total != 4 { // two docs, two passages each
		t.Errorf("expected 4 passages total, got %d", total)
	}
	if len(seen) != 3 {
		t.Errorf("progress callback fired %d times, want 3", len(seen))
	}
}
