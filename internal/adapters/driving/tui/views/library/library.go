// Package library provides the document selection view.
package library

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// View lists library documents and lets the user choose some for a chat.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	documents driving.DocumentService

	list      *list.Documents
	statusBar *status.Bar

	width  int
	height int
}

// NewView creates a library view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, documents driving.DocumentService) *View {
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
	bar.SetHints(km.LibraryHelp())

	return &View{
		ctx:       ctx,
		styles:    s,
		keymap:    km,
		documents: documents,
		list:      list.NewDocuments(s),
		statusBar: bar,
	}
}

// Init loads the library.
func (v *View) Init() tea.Cmd {
	return v.reload()
}

func (v *View) reload() tea.Cmd {
	if v.documents == nil {
		v.statusBar.SetState(status.StateError, "document service not configured")
		return nil
	}
	spin := v.statusBar.SetState(status.StateLoading, "Loading library...")
	return tea.Batch(spin, v.loadCmd())
}

func (v *View) loadCmd() tea.Cmd {
	ctx, documents := v.ctx, v.documents
	return func() tea.Msg {
		entries, err := documents.List(ctx)
		return messages.DocumentsLoaded{Entries: entries, Err: err}
	}
}

// Update handles messages for the library view.
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentsLoaded:
		if msg.Err != nil {
			v.statusBar.SetState(status.StateError, msg.Err.Error())
			return v, nil
		}
		v.list.SetEntries(msg.Entries)
		v.statusBar.SetState(status.StateReady, fmt.Sprintf("%d documents", len(msg.Entries)))
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmd tea.Cmd
	v.statusBar, cmd = v.statusBar.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(k, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(k, v.keymap.Toggle):
		if err := v.list.Toggle(); err != nil {
			v.statusBar.SetState(status.StateError, err.Error())
		} else {
			v.statusBar.SetState(status.StateReady, fmt.Sprintf("%d chosen", len(v.list.Chosen())))
		}
	case keymap.Matches(k, v.keymap.Open):
		return v, v.confirm()
	case keymap.Matches(k, v.keymap.Reload):
		return v, v.reload()
	case keymap.Matches(k, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case keymap.Matches(k, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

// confirm starts a chat. With nothing chosen the entry under the cursor is used.
func (v *View) confirm() tea.Cmd {
	if len(v.list.Chosen()) == 0 {
		if err := v.list.Toggle(); err != nil {
			v.statusBar.SetState(status.StateError, err.Error())
			return nil
		}
	}
	chosen := v.list.Chosen()
	if len(chosen) == 0 {
		return nil
	}
	return func() tea.Msg { return messages.SelectionConfirmed{Citekeys: chosen} }
}

// View renders the library view.
func (v *View) View() string {
	title := v.styles.Title.Render("refchat") + "  " + v.styles.Muted.Render("choose documents to chat with (* indexed)")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		v.list.View(),
		"",
		v.statusBar.View(),
	)
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-5)
	v.statusBar.SetWidth(width)
}

// Chosen returns the chosen citekeys.
func (v *View) Chosen() []domain.Citekey {
	return v.list.Chosen()
}
