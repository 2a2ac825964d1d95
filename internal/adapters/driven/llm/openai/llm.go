// Package openai provides an LLM service adapter for OpenAI-compatible chat
// completion APIs, including LM Studio.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// ErrAPIKeyRequired is returned when a cloud endpoint is configured without a key.
var ErrAPIKeyRequired = fmt.Errorf("openai: API key is required: %w", domain.ErrInvalidInput)

// LLMConfig holds configuration for the OpenAI-compatible LLM service.
type LLMConfig struct {
	// APIKey is the API key. LM Studio ignores it.
	APIKey string

	// RequireAPIKey rejects an empty APIKey.
	RequireAPIKey bool

	// BaseURL is the API base URL (default: http://localhost:1234/v1).
	BaseURL string

	// Model is used when a call names no model.
	Model string

	// Timeout is the request timeout (default: 400s).
	Timeout time.Duration
}

// LLMService provides completions over /chat/completions.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model            string              `json:"model"`
	Messages         []chatCompletionMsg `json:"messages"`
	Temperature      float64             `json:"temperature"`
	TopP             float64             `json:"top_p,omitempty"`
	PresencePenalty  float64             `json:"presence_penalty"`
	FrequencyPenalty float64             `json:"frequency_penalty"`
	MaxTokens        int                 `json:"max_tokens,omitempty"`
	Stream           bool                `json:"stream"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// modelsResponse is the OpenAI /models response format.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.RequireAPIKey && cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultLMStudioBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = domain.DefaultLLMTimeout
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete sends prompt as a single user message.
func (s *LLMService) Complete(ctx context.Context, prompt string, opts driven.CompletionOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = s.model
	}

	reqBody := chatCompletionRequest{
		Model:            model,
		Messages:         []chatCompletionMsg{{Role: "user", Content: prompt}},
		Temperature:      opts.Sampling.Temperature,
		TopP:             opts.Sampling.TopP,
		PresencePenalty:  opts.Sampling.PresencePenalty,
		FrequencyPenalty: opts.Sampling.FrequencyPenalty,
		MaxTokens:        opts.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", domain.ProviderError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", domain.ProviderError(err))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("chat completion: %w: status %d: %s",
			domain.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("chat completion: %w: %s", domain.ErrProviderUnavailable, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: %w: no choices in response", domain.ErrProviderUnavailable)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// ListModels returns the served model identifiers, sorted.
func (s *LLMService) ListModels(ctx context.Context) ([]string, error) {
	resp, err := s.getModels(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("list models: %w: decode response: %w", domain.ErrProviderUnavailable, err)
	}

	ids := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping validates the service is reachable by checking the /models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	resp, err := s.getModels(ctx)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (s *LLMService) getModels(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", domain.ProviderError(err))
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("list models: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	return resp, nil
}

func (s *LLMService) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
