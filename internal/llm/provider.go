package llm

import "context"

// Provider is the black-box text-generation collaborator. Implementations
// must be safe for concurrent use.
type Provider interface {
	// Generate produces a completion for the assembled prompt.
	Generate(ctx context.Context, req Request) (*Response, error)
	// Name returns the name of this provider.
	Name() string
}
