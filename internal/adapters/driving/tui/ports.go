package tui

import (
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// Ports holds the driving services the TUI calls.
type Ports struct {
	// Assistant answers questions and builds glossaries.
	Assistant driving.AssistantService

	// Documents lists the library.
	Documents driving.DocumentService
}

// Validate checks that every required service is present.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrNilPorts
	}
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
