// Package prompt renders the final LLM prompt from system instructions,
// retrieved passages, conversation history and the user query, under a
// hard token budget.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/otto-edu/otto/internal/memory"
	"github.com/otto-edu/otto/internal/vectordb"
)

// ErrPromptTooLarge indicates the system instructions and query alone
// exceed the token budget. Match with errors.Is.
var ErrPromptTooLarge = errors.New("prompt exceeds token budget")

// TooLargeError carries the sizes behind an ErrPromptTooLarge.
type TooLargeError struct {
	Required int
	Budget   int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("prompt requires %d tokens, budget is %d", e.Required, e.Budget)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrPromptTooLarge }

// TokenEstimator maps text to an approximate token count.
type TokenEstimator func(text string) int

// ApproxTokens estimates tokens as one per four bytes. Good enough for
// budgeting; exact counts are the provider's business.
func ApproxTokens(text string) int { return len(text) / 4 }

// Assembler builds prompts. The zero value is not usable; use New.
type Assembler struct {
	estimate TokenEstimator
}

// New creates an Assembler. A nil estimator falls back to ApproxTokens.
func New(estimate TokenEstimator) *Assembler {
	if estimate == nil {
		estimate = ApproxTokens
	}
	return &Assembler{estimate: estimate}
}

// Assemble renders the prompt within maxTokens.
//
// The system instructions and the query are included verbatim and never
// truncated; if they alone exceed the budget, Assemble returns a
// TooLargeError. History is kept in chronological order with the oldest
// turns dropped first; context passages are kept highest-relevance-first
// with the tail dropped to fit. History is reserved before context.
func (a *Assembler) Assemble(system string, contextPassages []vectordb.Result, history []memory.Turn, query string, maxTokens int) (string, error) {
	if maxTokens < 1 {
		return "", fmt.Errorf("token budget must be positive, got %d", maxTokens)
	}

	core := render(system, nil, nil, query)
	if n := a.estimate(core); n > maxTokens {
		return "", &TooLargeError{Required: n, Budget: maxTokens}
	}

	// Fit history first, dropping oldest turns.
	kept := history
	for len(kept) > 0 && a.estimate(render(system, nil, kept, query)) > maxTokens {
		kept = kept[1:]
	}

	// Fill the remainder with context, dropping the least relevant tail.
	passages := contextPassages
	for len(passages) > 0 && a.estimate(render(system, passages, kept, query)) > maxTokens {
		passages = passages[:len(passages)-1]
	}

	return render(system, passages, kept, query), nil
}

func render(system string, passages []vectordb.Result, history []memory.Turn, query string) string {
	var b strings.Builder

	if system != "" {
		b.WriteString(system)
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("\n## Conversation history\n")
		for _, turn := range history {
			b.WriteString(roleLabel(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
	}

	if len(passages) > 0 {
		b.WriteString("\n## Reference material\n")
		for i, res := range passages {
			fmt.Fprintf(&b, "\n[%d]", i+1)
			if res.Passage.Source != "" {
				fmt.Fprintf(&b, " (source: %s)", res.Passage.Source)
			}
			b.WriteString("\n")
			b.WriteString(res.Passage.Text)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## User message\n")
	b.WriteString(query)
	b.WriteString("\n")

	return b.String()
}

func roleLabel(r memory.Role) string {
	if r == memory.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
