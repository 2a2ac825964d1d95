package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

var (
	indexForce      bool
	indexStatusJSON bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage per-document indexes",
	Long: `Build, inspect and remove the vector indexes stored for each document.

Indexes are built automatically the first time a document is used, so these
commands are only needed to prepare documents ahead of time or to recover
from a changed embedding model.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build <citekey>...",
	Short: "Build indexes for documents",
	Long: `Make sure each named document has a ready index. Existing, up to date
indexes are reused unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexBuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored indexes",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

var indexRmCmd = &cobra.Command{
	Use:     "rm <citekey>...",
	Aliases: []string{"remove"},
	Short:   "Remove stored indexes",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runIndexRm,
}

func init() {
	indexBuildCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "rebuild even if a current index exists")
	indexStatusCmd.Flags().BoolVar(&indexStatusJSON, "json", false, "output status as JSON")
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexRmCmd)
	rootCmd.AddCommand(indexCmd)
}

// runIndexBuild builds every citekey and reports failures at the end.
func runIndexBuild(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	failed := 0
	for _, citekey := range args {
		build := indexService.Ensure
		if indexForce {
			build = indexService.Rebuild
		}

		stats, err := build(cmd.Context(), citekey)
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			failed++
			cmd.PrintErrf("  %s: %v\n", citekey, err)
			continue
		}
		cmd.Printf("  %s: %d chunks, %d dimensions\n", citekey, stats.RecordCount, stats.Dimensions)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed", failed, len(args))
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	stats, err := indexService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read index status: %w", err)
	}

	if indexStatusJSON {
		if stats == nil {
			stats = []domain.IndexStats{}
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(stats) == 0 {
		cmd.Println("No indexes stored.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CITEKEY\tCHUNKS\tDIMS\tMODEL\tBUILT")
	for _, s := range stats {
		if !s.Healthy() {
			fmt.Fprintf(w, "%s\t-\t-\t-\tunreadable: %s\n", s.Citekey, s.Error)
			continue
		}
		dims := fmt.Sprint(s.Dimensions)
		if s.Mismatched > 0 {
			dims = fmt.Sprintf("%d (+%d mismatched)", s.Dimensions, s.Mismatched)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			s.Citekey, s.RecordCount, dims, s.Manifest.EmbeddingModel, s.Manifest.BuiltAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runIndexRm(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	for _, citekey := range args {
		if err := indexService.Delete(cmd.Context(), citekey); err != nil {
			return fmt.Errorf("failed to remove index %s: %w", citekey, err)
		}
		cmd.Printf("Removed index %s\n", citekey)
	}
	return nil
}
