package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider %q, got %q", ProviderGoogle, cfg.Provider)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Errorf("expected default top_k 4, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Server.Port != 8600 {
		t.Errorf("expected default port 8600, got %d", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.otto.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Include = []string{"**/*.txt"}
	original.Chunking = ChunkingConfig{Size: 800, Overlap: 100}
	original.Server.Port = 9000

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Chunking != original.Chunking {
		t.Errorf("chunking: got %+v, want %+v", loaded.Chunking, original.Chunking)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("port: got %d, want 9000", loaded.Server.Port)
	}
	if len(loaded.Include) != 1 || loaded.Include[0] != "**/*.txt" {
		t.Errorf("include: got %v", loaded.Include)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != DefaultConfig().Provider {
		t.Errorf("missing file should yield defaults, got provider %q", cfg.Provider)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("OTTO_PROVIDER", "ollama")
	t.Setenv("OTTO_MODEL", "llama3.1")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("env override ignored: provider %q", cfg.Provider)
	}
	if cfg.Model != "llama3.1" {
		t.Errorf("env override ignored: model %q", cfg.Model)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "mystery" }, "invalid provider"},
		{"missing model", func(c *Config) { c.Model = "" }, "model is required"},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, "chunking.size"},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, "chunking.overlap"},
		{"zero overlap", func(c *Config) { c.Chunking.Overlap = 0 }, "chunking.overlap"},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }, "retrieval.top_k"},
		{"min_score out of range", func(c *Config) { c.Retrieval.MinScore = 1.5 }, "retrieval.min_score"},
		{"zero prompt budget", func(c *Config) { c.Prompt.MaxTokens = 0 }, "prompt.max_tokens"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero max_turns", func(c *Config) { c.Memory.MaxTurns = 0 }, "memory.max_turns"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderGoogle); got != "GOOGLE_API_KEY" {
		t.Errorf("google: %q", got)
	}
	if got := APIKeyEnvVar(ProviderOllama); got != "" {
		t.Errorf("ollama should need no key, got %q", got)
	}
}
