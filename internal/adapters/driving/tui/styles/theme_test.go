package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, theme.Primary)
	assert.NotEqual(t, theme.Primary, theme.Secondary)
	assert.NotEmpty(t, theme.Error)
}

func TestNewStyles(t *testing.T) {
	t.Run("nil theme uses default", func(t *testing.T) {
		s := NewStyles(nil)
		require.NotNil(t, s.Theme())
		assert.Equal(t, DefaultTheme().Primary, s.Theme().Primary)
	})

	t.Run("custom theme is kept", func(t *testing.T) {
		theme := DefaultTheme()
		theme.Primary = lipgloss.Color("#000000")
		s := NewStyles(theme)
		assert.Equal(t, lipgloss.Color("#000000"), s.Theme().Primary)
	})
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Title.Render("refchat"), "refchat")
	assert.Contains(t, s.Question.Render("why?"), "why?")
	assert.Contains(t, s.Answer.Render("because"), "because")
	assert.True(t, s.Question.GetBold())
	assert.True(t, s.Citation.GetItalic())
}
