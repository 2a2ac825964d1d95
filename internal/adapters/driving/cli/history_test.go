package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

func TestHistoryCmd(t *testing.T) {
	entries := []domain.ChatHistoryEntry{{
		ID:        "h1",
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Question:  "What is attention?",
		Answer:    "A weighting.",
		Citekeys:  []domain.Citekey{"vaswani2017", "bahdanau2014"},
	}}

	t.Run("text", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.history.entries = entries

		out, err := executeCommand(t, "", "history", "-n", "3")

		require.NoError(t, err)
		assert.Equal(t, 3, ts.history.lastLimit)
		assert.Contains(t, out, "[vaswani2017, bahdanau2014]")
		assert.Contains(t, out, "Q: What is attention?")
		assert.Contains(t, out, "A: A weighting.")
	})

	t.Run("default limit", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := executeCommand(t, "", "history")

		require.NoError(t, err)
		assert.Equal(t, 10, ts.history.lastLimit)
		assert.Contains(t, out, "No history yet.")
	})

	t.Run("json", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.history.entries = entries

		out, err := executeCommand(t, "", "history", "--json")

		require.NoError(t, err)
		var got []domain.ChatHistoryEntry
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 1)
		assert.True(t, got[0].Timestamp.Equal(entries[0].Timestamp))
	})

	t.Run("clear", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := executeCommand(t, "", "history", "clear")

		require.NoError(t, err)
		assert.True(t, ts.history.cleared)
		assert.Contains(t, out, "History cleared.")
	})

	t.Run("store error", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.history.err = errBoom

		_, err := executeCommand(t, "", "history")
		assert.ErrorIs(t, err, errBoom)
	})
}
