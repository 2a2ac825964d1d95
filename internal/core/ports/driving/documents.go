package driving

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// DocumentService resolves library documents.
type DocumentService interface {
	// Resolve returns the metadata of citekey.
	// Returns domain.ErrNotFound for an unknown citekey and
	// domain.ErrNoAttachment when it has no file reference.
	Resolve(ctx context.Context, citekey domain.Citekey) (*domain.DocumentMetadata, error)

	// List returns every library entry with its index status.
	List(ctx context.Context) ([]domain.LibraryEntry, error)
}
