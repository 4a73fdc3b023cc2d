package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level otto configuration, corresponding to .otto.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	DataDir  string   `yaml:"data_dir" koanf:"data_dir"`
	StateDir string   `yaml:"state_dir" koanf:"state_dir"`
	Include  []string `yaml:"include" koanf:"include"`
	Exclude  []string `yaml:"exclude" koanf:"exclude"`

	Chunking   ChunkingConfig   `yaml:"chunking" koanf:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" koanf:"retrieval"`
	Prompt     PromptConfig     `yaml:"prompt" koanf:"prompt"`
	Generation GenerationConfig `yaml:"generation" koanf:"generation"`
	Memory     MemoryConfig     `yaml:"memory" koanf:"memory"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`

	DegradeGracefully bool `yaml:"degrade_gracefully" koanf:"degrade_gracefully"`
}

// ChunkingConfig controls how documents are split into passages.
type ChunkingConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// RetrievalConfig controls semantic search. MinScore 0 disables the
// similarity threshold.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k" koanf:"top_k"`
	MinScore float64 `yaml:"min_score" koanf:"min_score"`
}

// PromptConfig controls prompt assembly.
type PromptConfig struct {
	MaxTokens          int    `yaml:"max_tokens" koanf:"max_tokens"`
	SystemInstructions string `yaml:"system_instructions" koanf:"system_instructions"`
}

// GenerationConfig controls the LLM call. Durations are whole seconds so
// they round-trip cleanly through YAML and environment variables.
type GenerationConfig struct {
	MaxOutputTokens     int     `yaml:"max_output_tokens" koanf:"max_output_tokens"`
	Temperature         float64 `yaml:"temperature" koanf:"temperature"`
	TimeoutSeconds      int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	RetryBackoffSeconds int     `yaml:"retry_backoff_seconds" koanf:"retry_backoff_seconds"`
	RequestsPerMinute   int     `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// MemoryConfig controls conversation memory.
type MemoryConfig struct {
	MaxTurns int `yaml:"max_turns" koanf:"max_turns"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}
