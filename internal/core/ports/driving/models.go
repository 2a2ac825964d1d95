package driving

import "context"

// ModelService lists the language models available for answering.
type ModelService interface {
	// ListModels returns the served model identifiers.
	// The configured default model is always included.
	ListModels(ctx context.Context) ([]string, error)
}
