package driven

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// Chunker splits extracted text into semantically coherent chunks.
// Positions restart at zero for every call.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits text into chunks. Provider failures yield no chunks
	// rather than an error.
	Chunk(ctx context.Context, text string) []domain.Chunk
}
