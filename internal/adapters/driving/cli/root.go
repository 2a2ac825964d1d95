// Package cli provides the refchat command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var verbose bool

// Services injected by main. A nil service makes its commands fail with
// a "not configured" error.
var (
	assistantService driving.AssistantService
	documentService  driving.DocumentService
	indexService     driving.IndexService
	historyService   driving.HistoryService
	modelService     driving.ModelService
	settingsService  driving.SettingsService
	attachmentWatch  Watcher
)

// Watcher rebuilds indexes as attachments change until ctx is cancelled.
type Watcher interface {
	Run(ctx context.Context) error
}

// Services bundles the core services the commands drive.
type Services struct {
	Assistant driving.AssistantService
	Documents driving.DocumentService
	Indexes   driving.IndexService
	History   driving.HistoryService
	Models    driving.ModelService
	Settings  driving.SettingsService
	Watcher   Watcher
}

var rootCmd = &cobra.Command{
	Use:   "refchat",
	Short: "Chat with the papers in your reference library",
	Long: `refchat answers questions about the PDFs attached to your Zotero library.

Each document is split into passages, embedded and stored in a per-document
index the first time it is used. Questions are answered by a local or remote
language model from the most relevant passages.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logging to stderr")
}

// SetServices injects the core services.
func SetServices(s Services) {
	assistantService = s.Assistant
	documentService = s.Documents
	indexService = s.Indexes
	historyService = s.History
	modelService = s.Models
	settingsService = s.Settings
	attachmentWatch = s.Watcher
}

// SetVersion sets the version reported by "refchat version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
