package config

// DefaultSystemInstructions is the assistant persona used when the
// config file does not override it.
const DefaultSystemInstructions = "Você é o OTTO, um assistente de estudos atencioso. " +
	"Responda em português claro e direto, baseando-se no material de referência fornecido. " +
	"Quando o material não cobrir a pergunta, diga isso abertamente em vez de inventar."

// DefaultExcludes are glob patterns skipped during ingestion regardless
// of include patterns.
var DefaultExcludes = []string{
	"**/.*",
	"**/node_modules/**",
	"**/README.md",
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Model:             "gemini-2.0-flash",
		EmbeddingProvider: ProviderGoogle,
		EmbeddingModel:    "text-embedding-004",
		DataDir:           "data",
		StateDir:          ".otto",
		Include:           []string{"**/*.txt", "**/*.md"},
		Exclude:           DefaultExcludes,
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 50,
		},
		Retrieval: RetrievalConfig{
			TopK:     4,
			MinScore: 0.0,
		},
		Prompt: PromptConfig{
			MaxTokens:          8192,
			SystemInstructions: DefaultSystemInstructions,
		},
		Generation: GenerationConfig{
			MaxOutputTokens:     1024,
			Temperature:         0.3,
			TimeoutSeconds:      60,
			RetryBackoffSeconds: 2,
			RequestsPerMinute:   0,
		},
		Memory: MemoryConfig{
			MaxTurns: 10,
		},
		Server: ServerConfig{
			Port: 8600,
		},
	}
}
