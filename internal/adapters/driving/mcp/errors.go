// Package mcp provides an MCP (Model Context Protocol) server adapter for refchat.
// It lets AI assistants ask questions about, and build glossaries from, the
// documents in the local reference library.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")

// toolError prefixes err with its stable kind so clients can branch on it.
func toolError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", domain.ErrorKind(err), err)
}
