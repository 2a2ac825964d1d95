package driven

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// Library lists the entries of a reference manager.
// The listing is fetched on every call; implementations must not cache it
// across requests.
//
// Implementations may include:
//   - Zotero with the Better BibTeX local API
type Library interface {
	// ListEntries returns metadata for every entry in the library.
	// FolderPath is empty for entries without a file attachment.
	// Returns domain.ErrMetadataUnavailable if the provider cannot be queried.
	ListEntries(ctx context.Context) ([]domain.DocumentMetadata, error)
}
