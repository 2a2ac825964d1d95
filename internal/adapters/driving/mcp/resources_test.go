package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestExtractCitekey(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"plain", "refchat://documents/smith2020", "smith2020"},
		{"escaped", "refchat://documents/smith%3A2020", "smith:2020"},
		{"wrong scheme", "other://documents/smith2020", ""},
		{"no citekey", "refchat://documents/", ""},
		{"bad escape kept raw", "refchat://documents/a%zz", "a%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCitekey(tt.uri))
		})
	}
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns history as json", func(t *testing.T) {
		history := &mockHistoryService{
			entries: []domain.ChatHistoryEntry{{
				ID:        "h1",
				Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
				Question:  "What is attention?",
				Answer:    "A weighting.",
				Citekeys:  []domain.Citekey{"vaswani2017"},
			}},
		}
		server := newTestServer(t, &Ports{Assistant: &mockAssistantService{}, History: history})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("refchat://history"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "refchat://history", result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Equal(t, historyLimit, history.lastLimit)

		var got []domain.ChatHistoryEntry
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "h1", got[0].ID)
		assert.Equal(t, []domain.Citekey{"vaswani2017"}, got[0].Citekeys)
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		server := newTestServer(t, &Ports{Assistant: &mockAssistantService{}, History: &mockHistoryService{}})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("refchat://history"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("no history service is an empty array", func(t *testing.T) {
		server := newTestServer(t, &Ports{Assistant: &mockAssistantService{}})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("refchat://history"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("store error is returned", func(t *testing.T) {
		history := &mockHistoryService{err: errors.New("disk full")}
		server := newTestServer(t, &Ports{Assistant: &mockAssistantService{}, History: history})

		_, err := server.handleHistoryResource(ctx, makeReadResourceRequest("refchat://history"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestServer_handleDocumentResources(t *testing.T) {
	ctx := context.Background()
	docs := &mockDocumentService{entries: []domain.LibraryEntry{
		{DocumentMetadata: domain.DocumentMetadata{Citekey: "smith:2020", Title: "Colons"}},
	}}
	server := newTestServer(t, &Ports{Assistant: &mockAssistantService{}, Documents: docs})

	t.Run("lists documents", func(t *testing.T) {
		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("refchat://documents"))

		require.NoError(t, err)
		var got []domain.LibraryEntry
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Colons", got[0].Title)
	})

	t.Run("returns one document", func(t *testing.T) {
		uri := "refchat://documents/smith%3A2020"
		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		assert.Equal(t, uri, result.Contents[0].URI)
		assert.Contains(t, result.Contents[0].Text, `"citekey": "smith:2020"`)
	})

	t.Run("unknown citekey is not found", func(t *testing.T) {
		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("refchat://documents/nobody"))
		assert.Error(t, err)
	})

	t.Run("no document service is not found", func(t *testing.T) {
		bare := newTestServer(t, &Ports{Assistant: &mockAssistantService{}})
		_, err := bare.handleDocumentResource(ctx, makeReadResourceRequest("refchat://documents/smith2020"))
		assert.Error(t, err)
	})
}
