package corrector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/otto-edu/otto/internal/llm"
)

type scriptedProvider struct {
	response string
	err      error
	lastReq  llm.Request
}

func (s *scriptedProvider) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Text: s.response}, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

func validResponse(criteria []Criterion) string {
	entries := make([]string, len(criteria))
	for i, cr := range criteria {
		entries[i] = fmt.Sprintf(`{"criterion": %q, "score": %d, "comments": "fine"}`, cr.Name, 100+i)
	}
	return fmt.Sprintf(`{"criteria": [%s], "verdict": "good essay", "summary": "solid work"}`,
		strings.Join(entries, ","))
}

func TestCorrect_DefaultRubric(t *testing.T) {
	rubric := DefaultRubric()
	p := &scriptedProvider{response: validResponse(rubric)}
	c := New(nil, p, 0, 0)

	fb, err := c.Correct(context.Background(), "uma redação sobre o meio ambiente", nil)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}

	if len(fb.Criteria) != 5 {
		t.Fatalf("expected 5 criteria, got %d", len(fb.Criteria))
	}
	wantTotal := 0
	for i, cf := range fb.Criteria {
		if cf.Criterion != rubric[i].Name {
			t.Errorf("criterion %d is %q, want %q", i, cf.Criterion, rubric[i].Name)
		}
		if cf.MaxScore != 200 {
			t.Errorf("criterion %d max score %d, want 200", i, cf.MaxScore)
		}
		wantTotal += cf.Score
	}
	if fb.TotalScore != wantTotal {
		t.Errorf("total %d does not match sum %d", fb.TotalScore, wantTotal)
	}
	if fb.Verdict != "good essay" {
		t.Errorf("verdict %q", fb.Verdict)
	}
	if !p.lastReq.JSONMode {
		t.Error("provider not called in JSON mode")
	}
	if !strings.Contains(p.lastReq.Prompt, rubric[0].Name) {
		t.Error("rubric missing from prompt")
	}
}

func TestCorrect_ReordersEntriesToRubricOrder(t *testing.T) {
	criteria := []Criterion{
		{Name: "Clarity", MaxScore: 10},
		{Name: "Structure", MaxScore: 10},
	}
	p := &scriptedProvider{response: `{
		"criteria": [
			{"criterion": "Structure", "score": 7, "comments": "b"},
			{"criterion": "Clarity", "score": 9, "comments": "a"}
		],
		"verdict": "v", "summary": "s"
	}`}
	c := New(nil, p, 0, 0)

	fb, err := c.Correct(context.Background(), "essay", criteria)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if fb.Criteria[0].Criterion != "Clarity" || fb.Criteria[0].Score != 9 {
		t.Errorf("first entry: %+v", fb.Criteria[0])
	}
	if fb.Criteria[1].Criterion != "Structure" || fb.Criteria[1].Score != 7 {
		t.Errorf("second entry: %+v", fb.Criteria[1])
	}
	if fb.TotalScore != 16 {
		t.Errorf("total %d, want 16", fb.TotalScore)
	}
}

func TestCorrect_JSONWrappedInProse(t *testing.T) {
	criteria := []Criterion{{Name: "Clarity", MaxScore: 10}}
	p := &scriptedProvider{response: "Here is the evaluation:\n```json\n" +
		`{"criteria": [{"criterion": "Clarity", "score": 8, "comments": "ok"}], "verdict": "v", "summary": "s"}` +
		"\n```"}
	c := New(nil, p, 0, 0)

	fb, err := c.Correct(context.Background(), "essay", criteria)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if fb.Criteria[0].Score != 8 {
		t.Errorf("score %d, want 8", fb.Criteria[0].Score)
	}
}

func TestCorrect_MalformedResponses(t *testing.T) {
	criteria := []Criterion{{Name: "Clarity", MaxScore: 10}}
	cases := map[string]string{
		"no json":           "I cannot grade this essay.",
		"invalid json":      `{"criteria": [`,
		"missing criterion": `{"criteria": [{"criterion": "Other", "score": 5}], "verdict": "v"}`,
		"wrong count":       `{"criteria": [], "verdict": "v"}`,
		"score over max":    `{"criteria": [{"criterion": "Clarity", "score": 11}], "verdict": "v"}`,
		"negative score":    `{"criteria": [{"criterion": "Clarity", "score": -1}], "verdict": "v"}`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			c := New(nil, &scriptedProvider{response: response}, 0, 0)
			_, err := c.Correct(context.Background(), "essay", criteria)
			var mfe *MalformedFeedbackError
			if !errors.As(err, &mfe) {
				t.Fatalf("expected MalformedFeedbackError, got %v", err)
			}
			if mfe.Raw != response {
				t.Errorf("error does not carry raw output")
			}
		})
	}
}

func TestCorrect_EmptyEssay(t *testing.T) {
	c := New(nil, &scriptedProvider{}, 0, 0)
	_, err := c.Correct(context.Background(), "  \n ", nil)
	if !errors.Is(err, ErrEmptyEssay) {
		t.Fatalf("expected ErrEmptyEssay, got %v", err)
	}
}

func TestCorrect_ProviderFailure(t *testing.T) {
	wantErr := errors.New("provider down")
	c := New(nil, &scriptedProvider{err: wantErr}, 0, 0)
	_, err := c.Correct(context.Background(), "essay", nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestDefaultRubric_Totals(t *testing.T) {
	total := 0
	for _, cr := range DefaultRubric() {
		total += cr.MaxScore
	}
	if total != 1000 {
		t.Errorf("rubric totals %d points, want 1000", total)
	}
}

func TestFeedback_JSONShape(t *testing.T) {
	fb := Feedback{
		Criteria:   []CriterionFeedback{{Criterion: "Clarity", Score: 8, MaxScore: 10, Comments: "ok"}},
		TotalScore: 8,
		Verdict:    "v",
		Summary:    "s",
	}
	raw, err := json.Marshal(fb)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"criteria", "total_score", "verdict", "summary", "max_score"} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("serialized feedback missing key %q", key)
		}
	}
}
