package services

import (
	"context"
	"time"

	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure ModelService implements the interface.
var _ driving.ModelService = (*ModelService)(nil)

// modelListAttempts is the number of tries before falling back to the default model.
const modelListAttempts = 3

// ModelService lists the models served by the LLM provider.
type ModelService struct {
	llm          driven.LLMService
	defaultModel string
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewModelService creates a model service. defaultModel is always listed.
func NewModelService(llm driven.LLMService, defaultModel string) *ModelService {
	return &ModelService{
		llm:          llm,
		defaultModel: defaultModel,
		sleep:        sleepContext,
	}
}

// ListModels returns the served models, retrying with a linear backoff.
// When every attempt fails only the default model is returned.
func (s *ModelService) ListModels(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= modelListAttempts; attempt++ {
		models, err := s.llm.ListModels(ctx)
		if err == nil {
			return s.withDefault(models), nil
		}
		lastErr = err
		logger.Debug("list models attempt %d/%d: %v", attempt, modelListAttempts, err)

		if attempt < modelListAttempts {
			if err := s.sleep(ctx, time.Duration(2*attempt)*time.Second); err != nil {
				return nil, err
			}
		}
	}

	logger.Warn("list models: %v, offering default model only", lastErr)
	return s.withDefault(nil), nil
}

// withDefault prepends the default model unless already listed.
func (s *ModelService) withDefault(models []string) []string {
	if s.defaultModel == "" {
		return models
	}
	for _, m := range models {
		if m == s.defaultModel {
			return models
		}
	}
	return append([]string{s.defaultModel}, models...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
