package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Chat with documents in an interactive terminal UI",
	Long: `Launch the interactive terminal interface.

Choose one or more documents from the library, then ask questions about
them. Answers are recorded in the chat history like those of "ask".

Controls:
  ↑/k, ↓/j - Navigate the library
  Space    - Choose a document
  Enter    - Start a chat / Ask
  Ctrl+G   - Glossary of the chosen document
  Esc      - Back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	app, err := tui.NewApp(&tui.Ports{
		Assistant: assistantService,
		Documents: documentService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
