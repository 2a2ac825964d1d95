// Package chunker provides a fixed-size text chunker.
// It needs no embedding calls and serves as the "fixed" chunking strategy.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits text into fixed-size, overlapping chunks.
// Sizes count runes, so multi-byte characters are never split.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "fixed"
}

// Chunk splits text into chunks of at most chunkSize characters.
func (p *Processor) Chunk(_ context.Context, text string) []domain.Chunk {
	content := []rune(strings.TrimSpace(text))
	if len(content) == 0 {
		return nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(content)/step+1)

	for start := 0; start < len(content); start += step {
		end := min(start+p.chunkSize, len(content))

		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			Content:  string(content[start:end]),
			Position: len(chunks),
		})

		if end == len(content) {
			break
		}
	}

	return chunks
}
