package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/otto-edu/otto/internal/vectordb"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }
func (s *stubEmbedder) Name() string    { return "stub" }

type stubIndex struct {
	results []vectordb.Result
	err     error
	gotTopK int
}

func (s *stubIndex) Upsert(_ context.Context, _ []vectordb.Passage, _ [][]float32) error {
	return nil
}
func (s *stubIndex) DeleteByDocument(_ context.Context, _ string) error { return nil }
func (s *stubIndex) Count() int                                         { return len(s.results) }
func (s *stubIndex) Persist(_ context.Context, _ string) error          { return nil }
func (s *stubIndex) Load(_ context.Context, _ string) error             { return nil }

func (s *stubIndex) Query(_ context.Context, _ []float32, topK int) ([]vectordb.Result, error) {
	s.gotTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func result(id string, score float32) vectordb.Result {
	return vectordb.Result{Passage: vectordb.Passage{ID: id}, Score: score}
}

func TestRetrieve_FiltersByMinScore(t *testing.T) {
	idx := &stubIndex{results: []vectordb.Result{
		result("a", 0.9),
		result("b", 0.5),
		result("c", 0.1),
	}}
	r := New(&stubEmbedder{}, idx, 0.4)

	got, err := r.Retrieve(context.Background(), "what is photosynthesis", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results above threshold, got %d", len(got))
	}
	if got[0].Passage.ID != "a" || got[1].Passage.ID != "b" {
		t.Errorf("unexpected results: %+v", got)
	}
	if idx.gotTopK != 3 {
		t.Errorf("index queried with topK=%d, want 3", idx.gotTopK)
	}
}

func TestRetrieve_NoThresholdKeepsNegativeScores(t *testing.T) {
	// Cosine similarity lives in [-1, 1]; with no threshold configured
	// even a weak nearest neighbor must come back.
	idx := &stubIndex{results: []vectordb.Result{
		result("a", 0.3),
		result("b", -0.2),
	}}
	r := New(&stubEmbedder{}, idx, 0)

	got, err := r.Retrieve(context.Background(), "anything", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected all 2 results without a threshold, got %d", len(got))
	}
	if got[1].Passage.ID != "b" || got[1].Score != -0.2 {
		t.Errorf("negative-score result altered: %+v", got[1])
	}
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := New(&stubEmbedder{}, &stubIndex{}, 0)
	got, err := r.Retrieve(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestRetrieve_EmbedderFailure(t *testing.T) {
	wantErr := errors.New("provider down")
	r := New(&stubEmbedder{err: wantErr}, &stubIndex{}, 0)
	_, err := r.Retrieve(context.Background(), "anything", 5)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped embedder error, got %v", err)
	}
}

func TestRetrieve_InvalidTopK(t *testing.T) {
	r := New(&stubEmbedder{}, &stubIndex{}, 0)
	if _, err := r.Retrieve(context.Background(), "anything", 0); err == nil {
		t.Fatal("expected error for topK=0")
	}
}
