package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the language models the LLM provider serves",
	Long: `List the models available from the configured LLM provider.
The configured default model is always listed, and marked with '*'.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "output models as JSON")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	models, err := modelService.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if modelsJSON {
		data, err := json.MarshalIndent(models, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal models: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	defaultModel := ""
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			defaultModel = settings.LLM.Model
		}
	}
	for _, m := range models {
		marker := " "
		if m == defaultModel {
			marker = "*"
		}
		cmd.Printf("%s %s\n", marker, m)
	}
	return nil
}
