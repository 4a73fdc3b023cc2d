package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/otto-edu/otto/internal/agent"
	"github.com/otto-edu/otto/internal/config"
	"github.com/otto-edu/otto/internal/corrector"
	"github.com/otto-edu/otto/internal/embeddings"
	"github.com/otto-edu/otto/internal/llm"
	"github.com/otto-edu/otto/internal/memory"
	"github.com/otto-edu/otto/internal/prompt"
	"github.com/otto-edu/otto/internal/retriever"
	"github.com/otto-edu/otto/internal/vectordb"
)

// loadConfig loads and validates the config, providing a friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `otto init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderGoogle:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderGoogle))
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		return embeddings.NewGoogleEmbedder(apiKey, embeddings.GoogleModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", provider)
	}
}

// createLLMProviderFromConfig creates an LLM provider based on config
// settings, wrapped with a rate limiter when one is configured.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if rpm := cfg.Generation.RequestsPerMinute; rpm > 0 {
		provider = llm.NewRateLimitedProvider(provider, rpm)
	}
	return provider, nil
}

func indexPath(cfg *config.Config) string {
	return filepath.Join(cfg.StateDir, "index.gob.gz")
}

// openIndex creates the vector index, loading persisted state when it
// exists. mustExist makes a missing index an error instead of an empty
// one.
func openIndex(cfg *config.Config, mustExist bool) (vectordb.Index, error) {
	idx, err := vectordb.NewChromemIndex()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(indexPath(cfg)); err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return nil, fmt.Errorf("no knowledge index at %s; run `otto ingest` first", indexPath(cfg))
			}
			return idx, nil
		}
		return nil, err
	}

	if err := idx.Load(context.Background(), cfg.StateDir); err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	return idx, nil
}

// openMemory opens the conversation store under the state directory.
func openMemory(cfg *config.Config) (*memory.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	return memory.OpenSQLite(filepath.Join(cfg.StateDir, "memory.db"))
}

func agentConfigFrom(cfg *config.Config) agent.Config {
	return agent.Config{
		SystemInstructions: cfg.Prompt.SystemInstructions,
		TopK:               cfg.Retrieval.TopK,
		HistoryTurns:       cfg.Memory.MaxTurns,
		MaxPromptTokens:    cfg.Prompt.MaxTokens,
		MaxOutputTokens:    cfg.Generation.MaxOutputTokens,
		Temperature:        cfg.Generation.Temperature,
		GenerationTimeout:  time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
		RetryBackoff:       time.Duration(cfg.Generation.RetryBackoffSeconds) * time.Second,
		DegradeGracefully:  cfg.DegradeGracefully,
	}
}

// buildAgent wires the full answering stack. The returned store is the
// same one the agent persists turns to.
func buildAgent(cfg *config.Config, requireIndex bool) (*agent.Agent, *memory.SQLiteStore, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	idx, err := openIndex(cfg, requireIndex)
	if err != nil {
		return nil, nil, err
	}
	store, err := openMemory(cfg)
	if err != nil {
		return nil, nil, err
	}

	retr := retriever.New(embedder, idx, float32(cfg.Retrieval.MinScore))
	a := agent.New(retr, prompt.New(nil), provider, store, agentConfigFrom(cfg))
	return a, store, nil
}

// buildCorrector wires the essay grading stack.
func buildCorrector(cfg *config.Config) (*corrector.Corrector, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return corrector.New(prompt.New(nil), provider, cfg.Prompt.MaxTokens, cfg.Generation.MaxOutputTokens), nil
}
