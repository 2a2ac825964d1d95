package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The same model must serve index builds and query-time embedding for a
// given index.
//
// Implementations may include:
//   - LM Studio or any OpenAI-compatible /v1/embeddings endpoint
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
