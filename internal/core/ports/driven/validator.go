package driven

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// AIConfigValidator checks that configured AI providers are reachable.
type AIConfigValidator interface {
	// ValidateEmbedding builds the embedding service for settings and pings it.
	ValidateEmbedding(ctx context.Context, settings domain.EmbeddingSettings) error

	// ValidateLLM builds the LLM service for settings and pings it.
	ValidateLLM(ctx context.Context, settings domain.LLMSettings) error
}
