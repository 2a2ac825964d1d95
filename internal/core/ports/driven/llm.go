package driven

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// LLMService provides text completion for answer synthesis.
// The model is chosen per call; implementations hold no "current model".
//
// Implementations may include:
//   - LM Studio (local inference server, OpenAI-compatible)
//   - Ollama (local models)
//   - Any OpenAI-compatible chat completions endpoint
type LLMService interface {
	// Complete produces a completion for prompt.
	// Transport failures are classified with domain.ProviderError.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// ListModels returns the model identifiers the provider serves.
	ListModels(ctx context.Context) ([]string, error)

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionOptions configures a single completion call.
type CompletionOptions struct {
	// Model is the model to use. Empty selects the adapter default.
	Model string

	// Sampling holds generation parameters passed through to the provider.
	Sampling domain.Sampling

	// MaxTokens is the maximum number of tokens to generate. Zero leaves it unset.
	MaxTokens int
}
