package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService records and lists chat exchanges.
type HistoryService struct {
	store driven.HistoryStore
	now   func() time.Time
}

// NewHistoryService creates a new history service.
func NewHistoryService(store driven.HistoryStore) *HistoryService {
	return &HistoryService{
		store: store,
		now:   time.Now,
	}
}

// Record appends an exchange. HTML is removed from the answer.
func (s *HistoryService) Record(ctx context.Context, question, answer string, citekeys []domain.Citekey) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("history question: %w", domain.ErrInvalidInput)
	}

	entry := domain.ChatHistoryEntry{
		ID:        uuid.New().String(),
		Timestamp: s.now().UTC(),
		Question:  question,
		Answer:    domain.StripHTML(answer),
		Citekeys:  append([]domain.Citekey(nil), citekeys...),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.ChatHistoryEntry, error) {
	if limit < 0 {
		limit = 0
	}
	return s.store.List(ctx, limit)
}

// Clear removes every entry.
func (s *HistoryService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
