// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/refchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/refchat/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/refchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/refchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds both AI services. Connectivity is not checked; an
// unreachable provider surfaces on the first call.
func Init(settings domain.AppSettings) (*InitResult, error) {
	embedder, err := CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	llm, err := CreateLLMService(settings.LLM)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}
	return &InitResult{EmbeddingService: embedder, LLMService: llm}, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service and pings it.
func ValidateLLMConfig(ctx context.Context, settings domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for the configured provider.
// LM Studio and OpenAI share the OpenAI-compatible adapter.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, notConfigured(settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.AIProviderLMStudio, domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			BaseURL:           baseURLOrDefault(settings.Provider, settings.BaseURL),
			APIKey:            settings.APIKey,
			RequireAPIKey:     settings.Provider.RequiresAPIKey(),
			Model:             settings.Model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service for the configured provider.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, notConfigured(settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderLMStudio, domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			BaseURL:       baseURLOrDefault(settings.Provider, settings.BaseURL),
			APIKey:        settings.APIKey,
			RequireAPIKey: settings.Provider.RequiresAPIKey(),
			Model:         settings.Model,
			Timeout:       settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func baseURLOrDefault(provider domain.AIProvider, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	return domain.DefaultBaseURLs()[provider]
}

func notConfigured(provider domain.AIProvider) error {
	if provider.RequiresAPIKey() {
		return fmt.Errorf("%s requires an API key: %w", provider, domain.ErrInvalidInput)
	}
	return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, provider)
}

// IsNotConfigured reports whether err came from missing provider configuration.
func IsNotConfigured(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
