// Package chat provides the question and answer view.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// exchange is one turn of the transcript.
type exchange struct {
	question string
	answer   string
	sources  []domain.SourcePassage
	err      error
}

// View is a chat over a fixed set of documents.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	assistant driving.AssistantService

	citekeys   []domain.Citekey
	transcript []exchange

	input     *input.Question
	viewport  viewport.Model
	statusBar *status.Bar

	width  int
	height int
}

// NewView creates a chat view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, assistant driving.AssistantService) *View {
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s)
	bar.SetHints(km.ChatHelp())

	v := &View{
		ctx:       ctx,
		styles:    s,
		keymap:    km,
		assistant: assistant,
		input:     input.NewQuestion(s),
		viewport:  viewport.New(80, 15),
		statusBar: bar,
		width:     80,
		height:    24,
	}
	v.refresh()
	return v
}

// Init focuses the input.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Focus(), v.input.Init())
}

// SetDocuments starts a new conversation over citekeys.
func (v *View) SetDocuments(citekeys []domain.Citekey) {
	v.citekeys = append([]domain.Citekey(nil), citekeys...)
	v.transcript = nil
	v.input.Reset()
	v.statusBar.SetState(status.StateReady, "")
	v.refresh()
}

// Citekeys returns the documents of the conversation.
func (v *View) Citekeys() []domain.Citekey {
	return v.citekeys
}

// Thinking reports whether a request is in flight.
func (v *View) Thinking() bool {
	return v.statusBar.Busy()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.AnswerCompleted:
		turn := exchange{question: msg.Question, err: msg.Err}
		if msg.Result != nil {
			turn.answer = msg.Result.Text
			turn.sources = msg.Result.Sources
		}
		return v, v.finish(turn)

	case messages.GlossaryCompleted:
		turn := exchange{question: "glossary of " + msg.Citekey, err: msg.Err}
		if msg.Result != nil {
			turn.answer = msg.Result.Entries.Markdown()
		}
		return v, v.finish(turn)

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.statusBar, cmd = v.statusBar.Update(msg)
	cmds = append(cmds, cmd)
	v.input, cmd = v.input.Update(msg)
	cmds = append(cmds, cmd)
	return v, tea.Batch(cmds...)
}

func (v *View) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewLibrary} }
	case keymap.Matches(k, v.keymap.ScrollUp), keymap.Matches(k, v.keymap.ScrollDown),
		keymap.Matches(k, v.keymap.Up), keymap.Matches(k, v.keymap.Down):
		if msg.Type == tea.KeyRunes {
			break
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	case keymap.Matches(k, v.keymap.Ask):
		return v, v.ask()
	case keymap.Matches(k, v.keymap.Glossary):
		return v, v.glossary()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) ask() tea.Cmd {
	question := v.input.Value()
	if question == "" || v.Thinking() {
		return nil
	}
	if v.assistant == nil {
		v.statusBar.SetState(status.StateError, "assistant service not configured")
		return nil
	}
	v.input.Reset()
	spin := v.statusBar.SetState(status.StateThinking, "Answering...")

	ctx, assistant := v.ctx, v.assistant
	req := driving.AnswerRequest{Citekeys: v.Citekeys(), Question: question}
	return tea.Batch(spin, func() tea.Msg {
		result, err := assistant.Answer(ctx, req)
		return messages.AnswerCompleted{Question: question, Result: result, Err: err}
	})
}

func (v *View) glossary() tea.Cmd {
	if v.Thinking() {
		return nil
	}
	if v.assistant == nil {
		v.statusBar.SetState(status.StateError, "assistant service not configured")
		return nil
	}
	if len(v.citekeys) != 1 {
		v.statusBar.SetState(status.StateError, "a glossary needs exactly one document")
		return nil
	}
	spin := v.statusBar.SetState(status.StateThinking, "Building glossary...")

	ctx, assistant, citekey := v.ctx, v.assistant, v.citekeys[0]
	return tea.Batch(spin, func() tea.Msg {
		result, err := assistant.BuildGlossary(ctx, driving.GlossaryRequest{Citekeys: []domain.Citekey{citekey}})
		return messages.GlossaryCompleted{Citekey: citekey, Result: result, Err: err}
	})
}

func (v *View) finish(turn exchange) tea.Cmd {
	v.transcript = append(v.transcript, turn)
	if turn.err != nil {
		v.statusBar.SetState(status.StateError, turn.err.Error())
	} else {
		v.statusBar.SetState(status.StateReady, "")
	}
	v.refresh()
	v.viewport.GotoBottom()
	return v.input.Focus()
}

// refresh re-renders the transcript into the viewport.
func (v *View) refresh() {
	if len(v.transcript) == 0 {
		v.viewport.SetContent(v.styles.Muted.Render("Ask a question about the chosen documents."))
		return
	}

	width := v.viewport.Width - 2
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	for i, turn := range v.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(v.styles.Question.Render("You: " + turn.question))
		b.WriteString("\n")
		if turn.err != nil {
			b.WriteString(v.styles.Error.Width(width).Render("Error: " + turn.err.Error()))
			continue
		}
		b.WriteString(v.styles.Answer.Width(width).Render(turn.answer))
		for _, src := range turn.sources {
			b.WriteString("\n")
			name := src.Citekey
			if src.Label != "" {
				name = fmt.Sprintf("%s (%s)", src.Label, src.Citekey)
			}
			b.WriteString(v.styles.Citation.Render(fmt.Sprintf("source: %s %.2f", name, src.Score)))
		}
	}
	v.viewport.SetContent(b.String())
}

// View renders the chat view.
func (v *View) View() string {
	header := v.styles.Title.Render("Chat") + "  " + v.styles.Muted.Render(strings.Join(v.citekeys, ", "))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		v.viewport.View(),
		v.input.View(),
		v.statusBar.View(),
	)
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	// header, spacer, input box and status bar
	vpHeight := height - 6
	if vpHeight < 3 {
		vpHeight = 3
	}
	v.viewport.Width = width
	v.viewport.Height = vpHeight
	v.input.SetWidth(width - 2)
	v.statusBar.SetWidth(width)
	v.refresh()
}
