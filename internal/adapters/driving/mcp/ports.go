package mcp

import (
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Assistant answers questions and builds glossaries.
	Assistant driving.AssistantService

	// Documents lists the reference library.
	Documents driving.DocumentService

	// History exposes past exchanges.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
// Documents and History are optional; the matching tool or resource
// reports an empty result without them.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	return nil
}
