package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild indexes when attachments change",
	Long: `Watch the Zotero storage directory and rebuild the index of a document
whenever its PDF is added or replaced. Runs until interrupted.

Example:
  refchat watch -v`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if attachmentWatch == nil {
			return errors.New("attachment watcher not configured")
		}
		cmd.PrintErrln("Watching for attachment changes. Press Ctrl+C to stop.")
		return attachmentWatch.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
