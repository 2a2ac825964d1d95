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
	documentsJSON    bool
	documentsIndexed bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List documents in the reference library",
	Long: `List every entry exported by the reference manager with its citekey,
year, title and whether a stored index exists for it.`,
	Args: cobra.NoArgs,
	RunE: runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output documents as JSON")
	documentsCmd.Flags().BoolVar(&documentsIndexed, "indexed", false, "only list documents with a stored index")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	entries, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsIndexed {
		filtered := entries[:0]
		for _, e := range entries {
			if e.HasIndex {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if documentsJSON {
		if entries == nil {
			entries = []domain.LibraryEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CITEKEY\tYEAR\tINDEXED\tPDF\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Citekey, e.Year, yesNo(e.HasIndex), yesNo(e.HasAttachment()), e.Title)
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
