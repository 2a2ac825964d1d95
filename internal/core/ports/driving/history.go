package driving

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// HistoryService exposes chat history.
type HistoryService interface {
	// Record appends an exchange to the history.
	Record(ctx context.Context, question, answer string, citekeys []domain.Citekey) error

	// List returns entries newest first. A limit of zero returns all entries.
	List(ctx context.Context, limit int) ([]domain.ChatHistoryEntry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
