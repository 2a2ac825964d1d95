package driving

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// IndexService manages per-document indexes.
type IndexService interface {
	// Ensure returns the stats of a ready index for citekey, building it if needed.
	Ensure(ctx context.Context, citekey domain.Citekey) (*domain.IndexStats, error)

	// Rebuild discards any stored index for citekey and builds a new one.
	Rebuild(ctx context.Context, citekey domain.Citekey) (*domain.IndexStats, error)

	// Delete removes the stored index for citekey.
	Delete(ctx context.Context, citekey domain.Citekey) error

	// Status returns stats for every stored index.
	// Unreadable indexes are reported with a nil manifest.
	Status(ctx context.Context) ([]domain.IndexStats, error)
}
