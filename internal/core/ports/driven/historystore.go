package driven

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// HistoryStore persists chat history. The log is append-only.
type HistoryStore interface {
	// Append records an entry.
	Append(ctx context.Context, entry domain.ChatHistoryEntry) error

	// List returns entries newest first. A limit of zero returns all entries.
	List(ctx context.Context, limit int) ([]domain.ChatHistoryEntry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
