// Package agent orchestrates one conversational exchange: retrieve
// context, assemble the prompt, generate an answer, persist the turn.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otto-edu/otto/internal/llm"
	"github.com/otto-edu/otto/internal/memory"
	"github.com/otto-edu/otto/internal/prompt"
	"github.com/otto-edu/otto/internal/vectordb"
)

// Stage names the step of the exchange an error occurred in.
type Stage string

const (
	StageReceived   Stage = "received"
	StageRetrieving Stage = "retrieving"
	StageAssembling Stage = "assembling"
	StageGenerating Stage = "generating"
	StagePersisting Stage = "persisting"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// ErrEmptyQuery rejects queries with no content.
var ErrEmptyQuery = errors.New("query is empty")

// StageError wraps a collaborator failure with the stage it happened in.
type StageError struct {
	Stage        Stage
	Collaborator string
	Err          error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Collaborator, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Retriever is the slice of the retrieval layer the agent needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]vectordb.Result, error)
}

// Config tunes one agent instance. Zero values are replaced by the
// defaults noted per field.
type Config struct {
	SystemInstructions string
	TopK               int           // default 4
	HistoryTurns       int           // default 10
	MaxPromptTokens    int           // default 8192
	MaxOutputTokens    int           // default 1024
	Temperature        float64
	GenerationTimeout  time.Duration // default 60s
	RetryBackoff       time.Duration // default 2s
	DegradeGracefully  bool          // answer without context when retrieval fails
}

func (c Config) withDefaults() Config {
	if c.TopK < 1 {
		c.TopK = 4
	}
	if c.HistoryTurns < 1 {
		c.HistoryTurns = 10
	}
	if c.MaxPromptTokens < 1 {
		c.MaxPromptTokens = 8192
	}
	if c.MaxOutputTokens < 1 {
		c.MaxOutputTokens = 1024
	}
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = 60 * time.Second
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	return c
}

// Result is a completed exchange. Warning is non-nil when the answer was
// produced but could not be persisted.
type Result struct {
	Answer   string
	Passages int
	Warning  error
}

// Agent coordinates the retriever, prompt assembler, LLM provider and
// memory store for a session-scoped conversation.
type Agent struct {
	retriever Retriever
	assembler *prompt.Assembler
	provider  llm.Provider
	store     memory.Store
	cfg       Config
}

// New wires an Agent. retriever may be nil when no knowledge index is
// configured; the agent then answers from history alone.
func New(retriever Retriever, assembler *prompt.Assembler, provider llm.Provider, store memory.Store, cfg Config) *Agent {
	return &Agent{
		retriever: retriever,
		assembler: assembler,
		provider:  provider,
		store:     store,
		cfg:       cfg.withDefaults(),
	}
}

// Respond handles one user query within a session. The session is
// created implicitly on its first turn. On success both the user query
// and the answer are persisted; a persistence failure still returns the
// answer, flagged in Result.Warning. Any failure before persistence
// leaves the memory store untouched.
func (a *Agent) Respond(ctx context.Context, sessionID, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &StageError{Stage: StageReceived, Collaborator: "input", Err: ErrEmptyQuery}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	passages, err := a.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	history, err := a.store.GetRecent(ctx, sessionID, a.cfg.HistoryTurns)
	if err != nil {
		return nil, &StageError{Stage: StageAssembling, Collaborator: "memory", Err: err}
	}

	rendered, err := a.assembler.Assemble(a.cfg.SystemInstructions, passages, history, query, a.cfg.MaxPromptTokens)
	if err != nil {
		return nil, &StageError{Stage: StageAssembling, Collaborator: "prompt", Err: err}
	}

	answer, err := a.generate(ctx, rendered)
	if err != nil {
		return nil, err
	}

	result := &Result{Answer: answer, Passages: len(passages)}
	if err := a.persist(ctx, sessionID, query, answer); err != nil {
		log.Printf("agent: session %s: answer produced but not persisted: %v", sessionID, err)
		result.Warning = &StageError{Stage: StagePersisting, Collaborator: "memory", Err: err}
	}
	return result, nil
}

func (a *Agent) retrieve(ctx context.Context, query string) ([]vectordb.Result, error) {
	if a.retriever == nil {
		return nil, nil
	}
	passages, err := a.retriever.Retrieve(ctx, query, a.cfg.TopK)
	if err != nil {
		if a.cfg.DegradeGracefully {
			log.Printf("agent: retrieval failed, answering without context: %v", err)
			return nil, nil
		}
		return nil, &StageError{Stage: StageRetrieving, Collaborator: "retriever", Err: err}
	}
	return passages, nil
}

// generate calls the provider with one retry after a backoff. Each
// attempt gets its own timeout.
func (a *Agent) generate(ctx context.Context, rendered string) (string, error) {
	req := llm.Request{
		Prompt:          rendered,
		MaxOutputTokens: a.cfg.MaxOutputTokens,
		Temperature:     a.cfg.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			log.Printf("agent: generation failed, retrying in %s: %v", a.cfg.RetryBackoff, lastErr)
			select {
			case <-time.After(a.cfg.RetryBackoff):
			case <-ctx.Done():
				return "", &StageError{Stage: StageGenerating, Collaborator: a.provider.Name(), Err: ctx.Err()}
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.cfg.GenerationTimeout)
		resp, err := a.provider.Generate(attemptCtx, req)
		cancel()
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err
	}
	return "", &StageError{Stage: StageGenerating, Collaborator: a.provider.Name(), Err: lastErr}
}

func (a *Agent) persist(ctx context.Context, sessionID, query, answer string) error {
	if err := a.store.AppendTurn(ctx, sessionID, memory.Turn{Role: memory.RoleUser, Content: query}); err != nil {
		return err
	}
	return a.store.AppendTurn(ctx, sessionID, memory.Turn{Role: memory.RoleAssistant, Content: answer})
}
