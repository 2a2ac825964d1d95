// Package messages defines the Bubble Tea messages exchanged between TUI views.
package messages

import (
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// ViewType identifies a view in the application.
type ViewType int

const (
	// ViewLibrary lists library documents for selection.
	ViewLibrary ViewType = iota
	// ViewChat is the question and answer transcript.
	ViewChat
	// ViewHelp shows keybindings.
	ViewHelp
)

// String returns the view name.
func (v ViewType) String() string {
	switch v {
	case ViewLibrary:
		return "library"
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged requests a switch to another view.
type ViewChanged struct {
	View ViewType
}

// DocumentsLoaded carries the result of listing the library.
type DocumentsLoaded struct {
	Entries []domain.LibraryEntry
	Err     error
}

// SelectionConfirmed starts a chat over the chosen documents, in label order.
type SelectionConfirmed struct {
	Citekeys []domain.Citekey
}

// AnswerCompleted carries the result of one question.
type AnswerCompleted struct {
	Question string
	Result   *driving.AnswerResult
	Err      error
}

// GlossaryCompleted carries the result of a glossary request.
type GlossaryCompleted struct {
	Citekey domain.Citekey
	Result  *driving.GlossaryResult
	Err     error
}

// ErrorOccurred reports an error to display.
type ErrorOccurred struct {
	Err error
}

// Quit requests application exit.
type Quit struct{}
