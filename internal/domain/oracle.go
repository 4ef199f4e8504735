package domain

import "context"

// TextOracle is the narrow text-generation capability consumed by the
// classification, review, and investigation stages. Implementations
// wrap a model backend; the resilient wrapper in internal/oracle
// guarantees callers a deterministic fallback on any failure.
type TextOracle interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// OracleConfig holds configuration for the LLM oracle client.
type OracleConfig struct {
	// BaseURL is an OpenAI-compatible chat-completions endpoint,
	// e.g. a local llama server at http://localhost:8000/v1.
	BaseURL string

	// Model is the model identifier sent with each request.
	Model string

	// APIKey is optional; local backends typically ignore it.
	APIKey string

	// TimeoutSeconds bounds a single generation call.
	TimeoutSeconds int
}
