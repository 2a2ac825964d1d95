// Package postprocessors selects the chunker that turns extracted text into chunks.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from chunking settings.
// Embedder may be nil for strategies that make no embedding calls.
type BuilderFunc func(cfg domain.ChunkingSettings, embedder driven.EmbeddingService) (driven.Chunker, error)

// Registry maps chunking strategy names to their builders.
// It allows dynamic construction of chunkers from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new chunker registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a chunker builder to the registry.
// Name should be unique and match the chunker's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a chunker for cfg.Strategy.
// Returns error if the strategy is not registered.
func (r *Registry) Build(cfg domain.ChunkingSettings, embedder driven.EmbeddingService) (driven.Chunker, error) {
	builder, ok := r.builders[cfg.Strategy]
	if !ok {
		return nil, fmt.Errorf("unknown chunking strategy: %q", cfg.Strategy)
	}
	return builder(cfg, embedder)
}

// Has returns true if a strategy with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
