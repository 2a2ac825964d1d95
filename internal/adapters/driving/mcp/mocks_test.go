package mcp

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// mockAssistantService records the last request it received.
type mockAssistantService struct {
	answer       *driving.AnswerResult
	glossary     *driving.GlossaryResult
	err          error
	lastAnswer   driving.AnswerRequest
	lastGlossary driving.GlossaryRequest
}

func (m *mockAssistantService) Answer(_ context.Context, req driving.AnswerRequest) (*driving.AnswerResult, error) {
	m.lastAnswer = req
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return &driving.AnswerResult{}, nil
	}
	return m.answer, nil
}

func (m *mockAssistantService) BuildGlossary(
	_ context.Context,
	req driving.GlossaryRequest,
) (*driving.GlossaryResult, error) {
	m.lastGlossary = req
	if m.err != nil {
		return nil, m.err
	}
	if m.glossary == nil {
		return &driving.GlossaryResult{}, nil
	}
	return m.glossary, nil
}

type mockDocumentService struct {
	entries []domain.LibraryEntry
	err     error
}

func (m *mockDocumentService) Resolve(_ context.Context, citekey domain.Citekey) (*domain.DocumentMetadata, error) {
	for i := range m.entries {
		if m.entries[i].Citekey == citekey {
			return &m.entries[i].DocumentMetadata, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.LibraryEntry, error) {
	return m.entries, m.err
}

type mockHistoryService struct {
	entries   []domain.ChatHistoryEntry
	err       error
	lastLimit int
}

func (m *mockHistoryService) Record(_ context.Context, _, _ string, _ []domain.Citekey) error {
	return m.err
}

func (m *mockHistoryService) List(_ context.Context, limit int) ([]domain.ChatHistoryEntry, error) {
	m.lastLimit = limit
	return m.entries, m.err
}

func (m *mockHistoryService) Clear(_ context.Context) error {
	return m.err
}
