package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

const (
	uriScheme    = "refchat://"
	mimeJSON     = "application/json"
	historyLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recent question and answer exchanges, newest first",
		MIMEType:    mimeJSON,
	}, s.handleHistoryResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Reference library entries with index status",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{citekey}",
		Name:        "document-metadata",
		Description: "Bibliographic metadata of one library entry",
		MIMEType:    mimeJSON,
	}, s.handleDocumentResource)
}

// handleHistoryResource returns the most recent chat history entries.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResult(req.Params.URI, []domain.ChatHistoryEntry{})
	}

	entries, err := s.ports.History.List(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if entries == nil {
		entries = []domain.ChatHistoryEntry{}
	}
	return jsonResult(req.Params.URI, entries)
}

// handleDocumentsResource returns every library entry.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return jsonResult(req.Params.URI, []domain.LibraryEntry{})
	}

	entries, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if entries == nil {
		entries = []domain.LibraryEntry{}
	}
	return jsonResult(req.Params.URI, entries)
}

// handleDocumentResource returns the library entry of one citekey,
// including entries without an attachment.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	citekey := extractCitekey(req.Params.URI)
	if citekey == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entries, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for i := range entries {
		if entries[i].Citekey == citekey {
			return jsonResult(req.Params.URI, entries[i])
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractCitekey extracts the citekey from a URI like refchat://documents/{citekey}.
// Citekeys may contain characters that clients percent-encode.
func extractCitekey(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	raw := strings.TrimPrefix(uri, prefix)
	citekey, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return citekey
}
