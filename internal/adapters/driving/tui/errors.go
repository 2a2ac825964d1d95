package tui

import "errors"

// Errors returned when constructing the TUI.
var (
	// ErrNilPorts is returned when no ports are supplied.
	ErrNilPorts = errors.New("tui: ports are required")

	// ErrMissingAssistantService is returned when the assistant service is nil.
	ErrMissingAssistantService = errors.New("tui: assistant service is required")

	// ErrMissingDocumentService is returned when the document service is nil.
	ErrMissingDocumentService = errors.New("tui: document service is required")
)
