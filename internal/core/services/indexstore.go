package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/logger"
)

// embedBatchSize bounds the number of texts sent in one embedding request.
const embedBatchSize = 64

// IndexStore owns the stored per-document indexes.
// Only IndexManager calls Build.
type IndexStore struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	now      func() time.Time
}

// NewIndexStore creates an index store over store, embedding with embedder.
func NewIndexStore(store driven.VectorStore, embedder driven.EmbeddingService) *IndexStore {
	return &IndexStore{
		store:    store,
		embedder: embedder,
		now:      time.Now,
	}
}

// Exists reports whether a stored index is present for citekey.
func (s *IndexStore) Exists(citekey domain.Citekey) bool {
	return s.store.Exists(citekey)
}

// Open loads the stored index for citekey.
// Records whose width differs from the dominant width are dropped and logged.
// An index without a single usable record is reported as corrupt.
func (s *IndexStore) Open(ctx context.Context, citekey domain.Citekey) (driven.IndexHandle, error) {
	manifest, records, err := s.store.Load(ctx, citekey)
	if err != nil {
		return nil, err
	}

	kept, dim, dropped := domain.FilterDominantDimension(records)
	if len(kept) == 0 {
		return nil, fmt.Errorf("index %s: %w: no usable records", citekey, domain.ErrCorruptIndex)
	}
	if dropped > 0 {
		logger.Warn("index %s: dropped %d records not matching dimension %d", citekey, dropped, dim)
	}
	return NewIndexHandle(*manifest, kept), nil
}

// Build embeds chunks, publishes them as the index for citekey and returns a handle.
// Nothing is published when embedding fails or yields no usable vector.
func (s *IndexStore) Build(
	ctx context.Context, citekey domain.Citekey, chunks []domain.Chunk, source domain.SourceFile,
) (driven.IndexHandle, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("build %s: %w", citekey, domain.ErrNoContent)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("build %s: embed chunks: %w", citekey, err)
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		records[i] = domain.VectorRecord{
			NodeID:    id,
			Citekey:   citekey,
			Text:      c.Content,
			Embedding: embeddings[i],
		}
	}

	kept, dim, dropped := domain.FilterDominantDimension(records)
	if len(kept) == 0 {
		return nil, fmt.Errorf("build %s: %w: embedding returned no usable vectors",
			citekey, domain.ErrProviderUnavailable)
	}
	if dropped > 0 {
		logger.Warn("index %s: embedding returned %d vectors not matching dimension %d", citekey, dropped, dim)
	}

	manifest := domain.IndexManifest{
		Citekey:        citekey,
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     dim,
		SourcePath:     source.Path,
		SourceHash:     source.Hash,
		ChunkCount:     len(kept),
		BuiltAt:        s.now().UTC(),
	}

	if err := s.store.Publish(ctx, manifest, kept); err != nil {
		return nil, fmt.Errorf("build %s: %w", citekey, err)
	}

	logger.Info("index %s: published %d records (%d dims, model %s)", citekey, len(kept), dim, manifest.EmbeddingModel)
	return NewIndexHandle(manifest, kept), nil
}

// embedAll embeds texts in bounded batches, preserving order.
func (s *IndexStore) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
				domain.ErrProviderUnavailable, end-start, len(batch))
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Delete removes the stored index for citekey.
func (s *IndexStore) Delete(citekey domain.Citekey) error {
	return s.store.Delete(citekey)
}

// List returns the citekeys with a stored index.
func (s *IndexStore) List(ctx context.Context) ([]domain.Citekey, error) {
	return s.store.List(ctx)
}

// Stats summarises the stored index for citekey.
// A corrupt index yields stats carrying the error instead of a manifest.
func (s *IndexStore) Stats(ctx context.Context, citekey domain.Citekey) (*domain.IndexStats, error) {
	manifest, records, err := s.store.Load(ctx, citekey)
	if errors.Is(err, domain.ErrCorruptIndex) {
		return &domain.IndexStats{Citekey: citekey, Error: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	kept, dim, dropped := domain.FilterDominantDimension(records)
	if len(kept) == 0 {
		return &domain.IndexStats{
			Citekey:    citekey,
			Error:      fmt.Sprintf("%v: no usable records", domain.ErrCorruptIndex),
			Mismatched: dropped,
		}, nil
	}
	return &domain.IndexStats{
		Citekey:     citekey,
		Manifest:    manifest,
		RecordCount: len(kept),
		Dimensions:  dim,
		Mismatched:  dropped,
	}, nil
}

// index is an in-memory, read-only view over one document's records.
type index struct {
	manifest domain.IndexManifest
	records  []domain.VectorRecord
}

// NewIndexHandle wraps records in a queryable handle.
func NewIndexHandle(manifest domain.IndexManifest, records []domain.VectorRecord) driven.IndexHandle {
	return &index{manifest: manifest, records: records}
}

func (x *index) Citekey() domain.Citekey { return x.manifest.Citekey }

func (x *index) Manifest() domain.IndexManifest { return x.manifest }

func (x *index) Records() []domain.VectorRecord { return x.records }

// Retrieve ranks records by cosine similarity to query and returns the top k.
func (x *index) Retrieve(query []float32, k int) []domain.SourcePassage {
	if k <= 0 || len(query) == 0 {
		return nil
	}

	passages := make([]domain.SourcePassage, 0, len(x.records))
	skipped := 0
	for _, r := range x.records {
		if r.Dimensions() != len(query) {
			skipped++
			continue
		}
		passages = append(passages, domain.SourcePassage{
			NodeID:  r.NodeID,
			Citekey: r.Citekey,
			Text:    r.Text,
			Score:   domain.CosineSimilarity(query, r.Embedding),
		})
	}
	if skipped > 0 {
		logger.Warn("index %s: skipped %d records with dimension other than %d",
			x.manifest.Citekey, skipped, len(query))
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages
}
