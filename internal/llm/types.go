package llm

// Request contains the parameters for a single generation call.
type Request struct {
	// Prompt is the fully assembled prompt text. The provider treats it
	// as opaque; all retrieval and history context is already inside.
	Prompt string
	// System is an optional instruction block sent separately for
	// providers with a native system role. May be empty.
	System          string
	MaxOutputTokens int
	Temperature     float64
	// JSONMode requests a response that parses as a single JSON object,
	// for providers that support constrained output.
	JSONMode bool
}

// Response contains the result of a generation call.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
}
