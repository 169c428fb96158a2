package llm

import "context"

// Provider is a text-generation backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Name returns the provider identifier ("ollama", "openai", ...).
	Name() string
	// Generate submits a system and user prompt and returns the raw response
	// text. An empty model selects the provider's configured default.
	Generate(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)
	// HealthCheck probes provider availability.
	HealthCheck(ctx context.Context) error
}
