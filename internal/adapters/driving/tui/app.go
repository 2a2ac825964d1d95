// Package tui provides the interactive chat interface for refchat.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/views/library"
)

// App is the root Bubble Tea model.
// It switches between the library, chat, and help views.
type App struct {
	ctx    context.Context
	ports  *Ports
	styles *styles.Styles
	keymap *keymap.KeyMap

	library *library.View
	chat    *chat.View

	current  messages.ViewType
	previous messages.ViewType

	width    int
	height   int
	quitting bool
}

// NewApp creates the application. Ports must carry every service.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		ctx:     context.Background(),
		ports:   ports,
		styles:  styles.DefaultStyles(),
		keymap:  keymap.DefaultKeyMap(),
		current: messages.ViewLibrary,
	}
	a.buildViews()
	return a, nil
}

// WithContext sets the context passed to service calls.
func (a *App) WithContext(ctx context.Context) *App {
	if ctx == nil {
		return a
	}
	a.ctx = ctx
	a.buildViews()
	return a
}

func (a *App) buildViews() {
	a.library = library.NewView(a.ctx, a.styles, a.keymap, a.ports.Documents)
	a.chat = chat.NewView(a.ctx, a.styles, a.keymap, a.ports.Assistant)
	if a.width > 0 {
		a.library.SetDimensions(a.width, a.height)
		a.chat.SetDimensions(a.width, a.height)
	}
}

// Init sets the window title and loads the library.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("refchat"), a.library.Init())
}

// Update routes messages to the active view.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.library.SetDimensions(msg.Width, msg.Height)
		a.chat.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a.quit()
		}
		if a.current == messages.ViewHelp {
			k := msg.String()
			if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) || k == "q" {
				a.current = a.previous
			}
			return a, nil
		}

	case messages.Quit:
		return a.quit()

	case messages.ViewChanged:
		a.switchTo(msg.View)
		return a, nil

	case messages.SelectionConfirmed:
		a.chat.SetDocuments(msg.Citekeys)
		a.switchTo(messages.ViewChat)
		return a, a.chat.Init()

	case messages.DocumentsLoaded:
		_, cmd := a.library.Update(msg)
		return a, cmd

	case messages.AnswerCompleted, messages.GlossaryCompleted:
		_, cmd := a.chat.Update(msg)
		return a, cmd

	case spinner.TickMsg:
		_, libCmd := a.library.Update(msg)
		_, chatCmd := a.chat.Update(msg)
		return a, tea.Batch(libCmd, chatCmd)
	}

	var cmd tea.Cmd
	switch a.current {
	case messages.ViewLibrary:
		_, cmd = a.library.Update(msg)
	case messages.ViewChat:
		_, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.quitting = true
	return a, tea.Quit
}

func (a *App) switchTo(view messages.ViewType) {
	if view == a.current {
		return
	}
	if view == messages.ViewHelp {
		a.previous = a.current
	}
	a.current = view
}

// View renders the active view.
func (a *App) View() string {
	if a.quitting {
		return ""
	}
	switch a.current {
	case messages.ViewChat:
		return a.chat.View()
	case messages.ViewHelp:
		return a.helpView()
	default:
		return a.library.View()
	}
}

func (a *App) helpView() string {
	titles := []string{"Library", "Chat", "General"}
	sections := make([]string, 0, len(titles))
	for i, group := range a.keymap.FullHelp() {
		lines := []string{a.styles.Subtitle.Render(titles[i])}
		for _, b := range group {
			h := b.Help()
			lines = append(lines, "  "+a.styles.Normal.Render(h.Key)+"  "+a.styles.Muted.Render(h.Desc))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("refchat keys"),
		"",
		strings.Join(sections, "\n\n"),
		"",
		a.styles.Help.Render("esc to go back"),
	)
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.current
}

// Run starts the program in the alternate screen and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}
