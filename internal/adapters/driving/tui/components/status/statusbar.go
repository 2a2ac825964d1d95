// Package status provides the status bar component.
package status

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
)

// State is what the status bar is currently reporting.
type State int

const (
	// StateReady means the view is idle.
	StateReady State = iota
	// StateLoading means the library is being fetched.
	StateLoading
	// StateThinking means a model call is in flight.
	StateThinking
	// StateError means the last operation failed.
	StateError
)

// String returns the state label.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateLoading:
		return "loading"
	case StateThinking:
		return "thinking"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Bar renders state, a message, and key hints on one line.
type Bar struct {
	styles  *styles.Styles
	spinner spinner.Model
	state   State
	message string
	hints   []key.Binding
	width   int
}

// NewBar creates a status bar.
func NewBar(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Title

	return &Bar{
		styles:  s,
		spinner: sp,
		width:   80,
	}
}

// SetState sets the state and message.
// Entering a busy state returns the spinner tick command.
func (b *Bar) SetState(state State, message string) tea.Cmd {
	wasBusy := b.Busy()
	b.state = state
	b.message = message
	if b.Busy() && !wasBusy {
		return b.spinner.Tick
	}
	return nil
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// Busy reports whether an operation is in flight.
func (b *Bar) Busy() bool {
	return b.state == StateLoading || b.state == StateThinking
}

// SetHints sets the key hints shown on the right.
func (b *Bar) SetHints(hints []key.Binding) {
	b.hints = hints
}

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Update advances the spinner while busy.
func (b *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok || !b.Busy() {
		return b, nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return b, cmd
}

// View renders the status bar.
func (b *Bar) View() string {
	var left string
	switch b.state {
	case StateLoading, StateThinking:
		left = b.spinner.View() + " " + b.message
	case StateError:
		left = b.styles.Error.Render("error: " + b.message)
	default:
		left = b.message
	}

	parts := make([]string, 0, len(b.hints))
	for _, h := range b.hints {
		help := h.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	right := b.styles.Help.Render(strings.Join(parts, " • "))

	return b.styles.StatusBar.Width(b.width).Render(left + "  " + right)
}
