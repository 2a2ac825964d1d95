// Package input provides the question input component.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
)

// DefaultCharLimit bounds the length of one question.
const DefaultCharLimit = 1000

// Question wraps a text input for typing questions.
type Question struct {
	input  textinput.Model
	styles *styles.Styles
	width  int
}

// NewQuestion creates a question input.
func NewQuestion(s *styles.Styles) *Question {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question, or ctrl+g for a glossary"
	ti.Prompt = "> "
	ti.CharLimit = DefaultCharLimit
	ti.Width = 60
	ti.Focus()

	return &Question{
		input:  ti,
		styles: s,
		width:  64,
	}
}

// Init returns the cursor blink command.
func (q *Question) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards messages to the text input.
func (q *Question) Update(msg tea.Msg) (*Question, tea.Cmd) {
	var cmd tea.Cmd
	q.input, cmd = q.input.Update(msg)
	return q, cmd
}

// View renders the input inside its border.
func (q *Question) View() string {
	return q.styles.InputField.Width(q.width).Render(q.input.View())
}

// Value returns the trimmed question.
func (q *Question) Value() string {
	return strings.TrimSpace(q.input.Value())
}

// SetValue replaces the input text.
func (q *Question) SetValue(v string) {
	q.input.SetValue(v)
}

// Reset clears the input.
func (q *Question) Reset() {
	q.input.Reset()
}

// Focus focuses the input.
func (q *Question) Focus() tea.Cmd {
	return q.input.Focus()
}

// Blur removes focus from the input.
func (q *Question) Blur() {
	q.input.Blur()
}

// Focused reports whether the input has focus.
func (q *Question) Focused() bool {
	return q.input.Focused()
}

// SetWidth sets the outer width of the input.
func (q *Question) SetWidth(width int) {
	if width < 10 {
		width = 10
	}
	q.width = width
	// border and padding take four columns, the prompt two more
	q.input.Width = width - 6
}
