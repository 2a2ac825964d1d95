package driven

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// VectorStore persists one vector index per citekey.
// Storage units are disjoint per citekey, so no cross-citekey locking is needed.
type VectorStore interface {
	// Exists reports whether a well-formed storage unit is present for citekey.
	Exists(citekey domain.Citekey) bool

	// Load reads the manifest and records of a stored index.
	// Returns domain.ErrNotFound if absent and domain.ErrCorruptIndex if the
	// storage cannot be parsed.
	Load(ctx context.Context, citekey domain.Citekey) (*domain.IndexManifest, []domain.VectorRecord, error)

	// Publish atomically replaces the index for manifest.Citekey.
	// On failure no storage unit that Exists reports is left behind.
	Publish(ctx context.Context, manifest domain.IndexManifest, records []domain.VectorRecord) error

	// Delete removes the index for citekey. Deleting a missing index is not an error.
	Delete(citekey domain.Citekey) error

	// List returns the citekeys with a stored index, sorted.
	List(ctx context.Context) ([]domain.Citekey, error)
}

// IndexHandle is a read-only, queryable view over one document's records.
type IndexHandle interface {
	// Citekey returns the document the index belongs to.
	Citekey() domain.Citekey

	// Manifest returns the build metadata.
	Manifest() domain.IndexManifest

	// Records returns the stored records.
	Records() []domain.VectorRecord

	// Retrieve returns up to k passages ranked by cosine similarity to query.
	// Records whose dimensionality differs from the query are skipped.
	Retrieve(query []float32, k int) []domain.SourcePassage
}
