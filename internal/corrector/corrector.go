// Package corrector grades essays against a rubric. It is stateless: no
// retrieval, no conversation memory, one LLM call per essay.
package corrector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/otto-edu/otto/internal/llm"
	"github.com/otto-edu/otto/internal/prompt"
)

// ErrEmptyEssay rejects essays with no content.
var ErrEmptyEssay = errors.New("essay is empty")

// Criterion is one rubric dimension an essay is scored on.
type Criterion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxScore    int    `json:"max_score"`
}

// DefaultRubric returns the five ENEM competencies, 200 points each for
// a 1000-point total.
func DefaultRubric() []Criterion {
	return []Criterion{
		{
			Name:        "Domínio da norma culta",
			Description: "Demonstrar domínio da modalidade escrita formal da língua portuguesa.",
			MaxScore:    200,
		},
		{
			Name:        "Compreensão da proposta",
			Description: "Compreender a proposta de redação e aplicar conceitos das várias áreas de conhecimento para desenvolver o tema, dentro dos limites estruturais do texto dissertativo-argumentativo.",
			MaxScore:    200,
		},
		{
			Name:        "Seleção e organização das informações",
			Description: "Selecionar, relacionar, organizar e interpretar informações, fatos, opiniões e argumentos em defesa de um ponto de vista.",
			MaxScore:    200,
		},
		{
			Name:        "Mecanismos linguísticos",
			Description: "Demonstrar conhecimento dos mecanismos linguísticos necessários para a construção da argumentação.",
			MaxScore:    200,
		},
		{
			Name:        "Proposta de intervenção",
			Description: "Elaborar proposta de intervenção para o problema abordado, respeitando os direitos humanos.",
			MaxScore:    200,
		},
	}
}

// CriterionFeedback is the grade for one criterion.
type CriterionFeedback struct {
	Criterion string `json:"criterion"`
	Score     int    `json:"score"`
	MaxScore  int    `json:"max_score"`
	Comments  string `json:"comments"`
}

// Feedback is a full essay evaluation. Criteria follows the order of the
// rubric the essay was graded against.
type Feedback struct {
	Criteria   []CriterionFeedback `json:"criteria"`
	TotalScore int                 `json:"total_score"`
	Verdict    string              `json:"verdict"`
	Summary    string              `json:"summary"`
}

// MalformedFeedbackError reports an LLM response that could not be
// turned into a Feedback. Raw holds the offending model output.
type MalformedFeedbackError struct {
	Reason string
	Raw    string
}

func (e *MalformedFeedbackError) Error() string {
	return fmt.Sprintf("malformed feedback: %s", e.Reason)
}

// Corrector grades essays with an LLM provider.
type Corrector struct {
	assembler       *prompt.Assembler
	provider        llm.Provider
	maxPromptTokens int
	maxOutputTokens int
}

// New creates a Corrector. A nil assembler gets the default estimator.
func New(assembler *prompt.Assembler, provider llm.Provider, maxPromptTokens, maxOutputTokens int) *Corrector {
	if assembler == nil {
		assembler = prompt.New(nil)
	}
	if maxPromptTokens < 1 {
		maxPromptTokens = 8192
	}
	if maxOutputTokens < 1 {
		maxOutputTokens = 2048
	}
	return &Corrector{
		assembler:       assembler,
		provider:        provider,
		maxPromptTokens: maxPromptTokens,
		maxOutputTokens: maxOutputTokens,
	}
}

// Correct grades essay against criteria (DefaultRubric when nil) and
// returns one CriterionFeedback per criterion, in rubric order.
func (c *Corrector) Correct(ctx context.Context, essay string, criteria []Criterion) (*Feedback, error) {
	if strings.TrimSpace(essay) == "" {
		return nil, ErrEmptyEssay
	}
	if len(criteria) == 0 {
		criteria = DefaultRubric()
	}

	rendered, err := c.assembler.Assemble(renderRubric(criteria), nil, nil, essay, c.maxPromptTokens)
	if err != nil {
		return nil, fmt.Errorf("assembling correction prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		Prompt:          rendered,
		MaxOutputTokens: c.maxOutputTokens,
		JSONMode:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("grading essay: %w", err)
	}

	return parseFeedback(resp.Text, criteria)
}

// renderRubric turns the criteria into the grading instructions that
// become the prompt's system block.
func renderRubric(criteria []Criterion) string {
	var b strings.Builder
	b.WriteString("You are an essay grader. Evaluate the essay in the user message against each criterion below.\n\nCriteria:\n")
	for i, cr := range criteria {
		fmt.Fprintf(&b, "%d. %s (0 to %d points): %s\n", i+1, cr.Name, cr.MaxScore, cr.Description)
	}
	b.WriteString(`
Respond with a single JSON object, nothing else:
{
  "criteria": [{"criterion": "<name>", "score": <int>, "comments": "<text>"}],
  "verdict": "<one-line overall judgement>",
  "summary": "<short paragraph of overall feedback>"
}
Include exactly one entry per criterion, in the order listed above, using the exact criterion names.`)
	return b.String()
}

func parseFeedback(raw string, criteria []Criterion) (*Feedback, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, &MalformedFeedbackError{Reason: err.Error(), Raw: raw}
	}

	var wire struct {
		Criteria []struct {
			Criterion string `json:"criterion"`
			Score     int    `json:"score"`
			Comments  string `json:"comments"`
		} `json:"criteria"`
		Verdict string `json:"verdict"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, &MalformedFeedbackError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}

	if len(wire.Criteria) != len(criteria) {
		return nil, &MalformedFeedbackError{
			Reason: fmt.Sprintf("expected %d criteria entries, got %d", len(criteria), len(wire.Criteria)),
			Raw:    raw,
		}
	}

	// Models occasionally reorder entries; match by name and restore
	// rubric order.
	byName := make(map[string]int, len(wire.Criteria))
	for i, entry := range wire.Criteria {
		byName[normalizeName(entry.Criterion)] = i
	}

	fb := &Feedback{
		Criteria: make([]CriterionFeedback, len(criteria)),
		Verdict:  wire.Verdict,
		Summary:  wire.Summary,
	}
	for i, cr := range criteria {
		j, ok := byName[normalizeName(cr.Name)]
		if !ok {
			return nil, &MalformedFeedbackError{
				Reason: fmt.Sprintf("missing entry for criterion %q", cr.Name),
				Raw:    raw,
			}
		}
		entry := wire.Criteria[j]
		if entry.Score < 0 || entry.Score > cr.MaxScore {
			return nil, &MalformedFeedbackError{
				Reason: fmt.Sprintf("score %d for %q outside 0..%d", entry.Score, cr.Name, cr.MaxScore),
				Raw:    raw,
			}
		}
		fb.Criteria[i] = CriterionFeedback{
			Criterion: cr.Name,
			Score:     entry.Score,
			MaxScore:  cr.MaxScore,
			Comments:  entry.Comments,
		}
		fb.TotalScore += entry.Score
	}
	return fb, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// extractJSON returns the outermost JSON object in raw. Providers that
// ignore JSON mode sometimes wrap the object in prose or code fences.
func extractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", errors.New("no JSON object in response")
	}
	return raw[start : end+1], nil
}
