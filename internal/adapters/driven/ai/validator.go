package ai

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(ctx, settings)
}

// ValidateLLM validates an LLM configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, settings domain.LLMSettings) error {
	return ValidateLLMConfig(ctx, settings)
}
