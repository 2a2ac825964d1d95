package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd(t *testing.T) {
	t.Run("runs the watcher", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := executeCommand(t, "", "watch")

		require.NoError(t, err)
		assert.True(t, ts.watcher.ran)
		assert.Contains(t, out, "Watching for attachment changes")
	})

	t.Run("returns watcher error", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.watcher.err = errBoom

		_, err := executeCommand(t, "", "watch")
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("not configured", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()
		SetServices(Services{})

		_, err := executeCommand(t, "", "watch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestMCPServeCmd_RequiresAssistant(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := executeCommand(t, "", "mcp", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assistant service not configured")
}
