package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure IndexManager implements the interface.
var _ driving.IndexService = (*IndexManager)(nil)

// IndexManager returns ready indexes, building them only when needed.
//
// Per citekey, every call re-evaluates from scratch:
//
//	exists? ── yes ── open ── ok ──── fresh? ── yes ── READY
//	   │               │                 └── no ── BUILD
//	   │               └── corrupt ── BUILD
//	   └── no ── BUILD
//
// BUILD resolves metadata, locates the PDF, extracts and chunks every page
// and publishes the index atomically. Concurrent calls for one citekey
// share a single evaluation. The shared evaluation ignores the cancellation
// of whichever caller started it; each caller stops waiting when its own
// context ends.
type IndexManager struct {
	docs      driving.DocumentService
	extractor driven.TextExtractor
	chunker   driven.Chunker
	indexes   *IndexStore
	embedder  driven.EmbeddingService

	verifySource bool
	locate       func(folder string) (string, error)
	hash         func(path string) (domain.SourceFile, error)

	group singleflight.Group
}

// IndexManagerOption configures the manager.
type IndexManagerOption func(*IndexManager)

// WithSourceVerification enables rebuilding indexes whose source file
// or embedding model changed since they were built.
func WithSourceVerification(enabled bool) IndexManagerOption {
	return func(m *IndexManager) {
		m.verifySource = enabled
	}
}

// NewIndexManager creates a new index lifecycle manager.
func NewIndexManager(
	docs driving.DocumentService,
	extractor driven.TextExtractor,
	chunker driven.Chunker,
	indexes *IndexStore,
	embedder driven.EmbeddingService,
	opts ...IndexManagerOption,
) *IndexManager {
	m := &IndexManager{
		docs:         docs,
		extractor:    extractor,
		chunker:      chunker,
		indexes:      indexes,
		embedder:     embedder,
		verifySource: true,
		locate:       LocatePDF,
		hash:         HashFile,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns a ready index for citekey.
// meta may be nil; it is resolved only when a build or freshness check needs it.
func (m *IndexManager) GetOrCreate(
	ctx context.Context, citekey domain.Citekey, meta *domain.DocumentMetadata,
) (driven.IndexHandle, error) {
	return m.share(ctx, citekey, func(ctx context.Context) (driven.IndexHandle, error) {
		return m.getOrCreate(ctx, citekey, meta)
	})
}

// share runs fn once per key across concurrent callers.
func (m *IndexManager) share(
	ctx context.Context, key string, fn func(context.Context) (driven.IndexHandle, error),
) (driven.IndexHandle, error) {
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Debug("index %s: joined in-flight evaluation", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(driven.IndexHandle), nil
	}
}

func (m *IndexManager) getOrCreate(
	ctx context.Context, citekey domain.Citekey, meta *domain.DocumentMetadata,
) (driven.IndexHandle, error) {
	if !m.indexes.Exists(citekey) {
		logger.Debug("index %s: not found, building", citekey)
		return m.build(ctx, citekey, meta)
	}

	handle, err := m.indexes.Open(ctx, citekey)
	switch {
	case errors.Is(err, domain.ErrCorruptIndex):
		logger.Warn("index %s: %v, rebuilding", citekey, err)
		return m.build(ctx, citekey, meta)
	case err != nil:
		return nil, err
	}

	if !m.verifySource {
		return handle, nil
	}

	fresh, err := m.isFresh(ctx, handle, meta)
	if err != nil {
		// The stored index stays usable when the source cannot be checked.
		logger.Debug("index %s: freshness check skipped: %v", citekey, err)
		return handle, nil
	}
	if !fresh {
		logger.Info("index %s: source or embedding model changed, rebuilding", citekey)
		return m.build(ctx, citekey, meta)
	}
	return handle, nil
}

// isFresh compares the stored manifest with the current source and model.
func (m *IndexManager) isFresh(
	ctx context.Context, handle driven.IndexHandle, meta *domain.DocumentMetadata,
) (bool, error) {
	manifest := handle.Manifest()
	if manifest.EmbeddingModel != m.embedder.ModelName() {
		return false, nil
	}

	source, err := m.source(ctx, handle.Citekey(), meta)
	if err != nil {
		return false, err
	}
	return source.Hash == manifest.SourceHash, nil
}

// source resolves, locates and hashes the PDF of citekey.
func (m *IndexManager) source(
	ctx context.Context, citekey domain.Citekey, meta *domain.DocumentMetadata,
) (domain.SourceFile, error) {
	if meta == nil {
		resolved, err := m.docs.Resolve(ctx, citekey)
		if err != nil {
			return domain.SourceFile{}, err
		}
		meta = resolved
	}

	path, err := m.locate(meta.FolderPath)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("document %q: %w", citekey, err)
	}
	return m.hash(path)
}

// build runs the full BUILD path. Rebuilds are always full.
func (m *IndexManager) build(
	ctx context.Context, citekey domain.Citekey, meta *domain.DocumentMetadata,
) (driven.IndexHandle, error) {
	logger.Section("Index " + citekey)

	source, err := m.source(ctx, citekey, meta)
	if err != nil {
		return nil, err
	}

	pages, err := m.extractor.Extract(ctx, source.Path)
	if err != nil {
		return nil, fmt.Errorf("document %q: extract: %w", citekey, err)
	}
	logger.Debug("index %s: extracted %d segments from %s", citekey, len(pages), source.Path)

	var chunks []domain.Chunk
	for _, page := range pages {
		for _, c := range m.chunker.Chunk(ctx, page) {
			c.Position = len(chunks)
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %q: %w", citekey, domain.ErrNoContent)
	}
	logger.Debug("index %s: %s chunker produced %d chunks", citekey, m.chunker.Name(), len(chunks))

	return m.indexes.Build(ctx, citekey, chunks, source)
}

// Ensure returns the stats of a ready index for citekey, building it if needed.
func (m *IndexManager) Ensure(ctx context.Context, citekey domain.Citekey) (*domain.IndexStats, error) {
	handle, err := m.GetOrCreate(ctx, citekey, nil)
	if err != nil {
		return nil, err
	}
	return handleStats(handle), nil
}

// Rebuild discards any stored index for citekey and builds a new one.
// The previous index stays in place until the new one is published.
// Rebuilds never join an in-flight GetOrCreate.
func (m *IndexManager) Rebuild(ctx context.Context, citekey domain.Citekey) (*domain.IndexStats, error) {
	handle, err := m.share(ctx, "rebuild:"+citekey, func(ctx context.Context) (driven.IndexHandle, error) {
		return m.build(ctx, citekey, nil)
	})
	if err != nil {
		return nil, err
	}
	return handleStats(handle), nil
}

// Delete removes the stored index for citekey.
func (m *IndexManager) Delete(_ context.Context, citekey domain.Citekey) error {
	if !m.indexes.Exists(citekey) {
		return fmt.Errorf("index %q: %w", citekey, domain.ErrNotFound)
	}
	return m.indexes.Delete(citekey)
}

// Status returns stats for every stored index.
func (m *IndexManager) Status(ctx context.Context) ([]domain.IndexStats, error) {
	citekeys, err := m.indexes.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.IndexStats, 0, len(citekeys))
	for _, citekey := range citekeys {
		stats, err := m.indexes.Stats(ctx, citekey)
		if err != nil {
			result = append(result, domain.IndexStats{Citekey: citekey, Error: err.Error()})
			continue
		}
		result = append(result, *stats)
	}
	return result, nil
}

func handleStats(h driven.IndexHandle) *domain.IndexStats {
	manifest := h.Manifest()
	return &domain.IndexStats{
		Citekey:     h.Citekey(),
		Manifest:    &manifest,
		RecordCount: len(h.Records()),
		Dimensions:  manifest.Dimensions,
	}
}
