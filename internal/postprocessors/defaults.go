package postprocessors

import (
	"errors"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/postprocessors/chunker"
	"github.com/custodia-labs/refchat/internal/postprocessors/semantic"
)

// RegisterDefaults registers all built-in chunkers with the registry.
// Call this during application initialisation to enable standard strategies.
func RegisterDefaults(r *Registry) {
	r.Register(domain.ChunkingSemantic, buildSemantic)
	r.Register(domain.ChunkingFixed, buildFixed)
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildSemantic creates the embedding-driven splitter.
// Uses cfg.BufferSize and cfg.BreakpointPercentile.
func buildSemantic(cfg domain.ChunkingSettings, embedder driven.EmbeddingService) (driven.Chunker, error) {
	if embedder == nil {
		return nil, errors.New("semantic chunking requires an embedding service")
	}
	return semantic.New(embedder,
		semantic.WithBufferSize(cfg.BufferSize),
		semantic.WithBreakpointPercentile(cfg.BreakpointPercentile),
	), nil
}

// buildFixed creates the fixed-size chunker.
// Uses cfg.ChunkSize and cfg.ChunkOverlap.
func buildFixed(cfg domain.ChunkingSettings, _ driven.EmbeddingService) (driven.Chunker, error) {
	var opts []chunker.Option
	if cfg.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.ChunkOverlap >= 0 {
		opts = append(opts, chunker.WithOverlap(cfg.ChunkOverlap))
	}
	return chunker.New(opts...), nil
}
