package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "thinking", StateThinking.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestBar_SetState(t *testing.T) {
	b := NewBar(nil)

	assert.Nil(t, b.SetState(StateReady, "3 documents"))
	assert.False(t, b.Busy())

	assert.NotNil(t, b.SetState(StateThinking, "answering"), "entering a busy state starts the spinner")
	assert.True(t, b.Busy())
	assert.Nil(t, b.SetState(StateLoading, "still busy"), "spinner already running")

	b.SetState(StateError, "boom")
	assert.Equal(t, StateError, b.State())
	assert.Equal(t, "boom", b.Message())
}

func TestBar_Update(t *testing.T) {
	b := NewBar(nil)

	_, cmd := b.Update(spinner.TickMsg{})
	assert.Nil(t, cmd, "idle bar ignores ticks")

	b.SetState(StateThinking, "answering")
	_, cmd = b.Update(b.spinner.Tick())
	assert.NotNil(t, cmd)

	_, cmd = b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestBar_View(t *testing.T) {
	b := NewBar(nil)
	b.SetHints([]key.Binding{
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	})

	b.SetState(StateReady, "ready to chat")
	view := b.View()
	assert.Contains(t, view, "ready to chat")
	assert.Contains(t, view, "q quit")

	b.SetState(StateError, "boom")
	assert.Contains(t, b.View(), "error: boom")
}
