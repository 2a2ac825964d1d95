package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previous questions and answers",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the chat history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of entries (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output history as JSON")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	entries, err := historyService.List(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyJSON {
		if entries == nil {
			entries = []domain.ChatHistoryEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No history yet.")
		return nil
	}

	for _, e := range entries {
		cmd.Printf("%s  [%s]\n", e.Timestamp.Local().Format("2006-01-02 15:04"), strings.Join(e.Citekeys, ", "))
		cmd.Printf("Q: %s\n", e.Question)
		cmd.Printf("A: %s\n", e.Answer)
		cmd.Println()
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	if err := historyService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	cmd.Println("History cleared.")
	return nil
}
