package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// Glossary output formats.
const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

var (
	glossaryCount  int
	glossaryWords  int
	glossaryModel  string
	glossaryFormat string
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary <citekey>",
	Short: "Build a glossary of key concepts in a document",
	Long: `Ask the language model for the key technical concepts of one document
and define each of them from the document's own passages.

Output formats:
  markdown - **concept**: definition, one per paragraph (default)
  json     - the glossary as a JSON object
  yaml     - the glossary as a YAML document`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGlossary,
}

func init() {
	glossaryCmd.Flags().IntVarP(&glossaryCount, "count", "n", 0, "number of concepts (default from settings)")
	glossaryCmd.Flags().IntVarP(&glossaryWords, "words", "w", 0, "words per definition (default from settings)")
	glossaryCmd.Flags().StringVarP(&glossaryModel, "model", "m", "", "LLM model (default from settings)")
	glossaryCmd.Flags().StringVarP(&glossaryFormat, "format", "f", formatMarkdown, "output format: markdown, json or yaml")
	rootCmd.AddCommand(glossaryCmd)
}

// glossaryDocument is the YAML export shape.
type glossaryDocument struct {
	Citekey string          `yaml:"citekey"`
	Entries domain.Glossary `yaml:"entries"`
}

func runGlossary(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	format := strings.ToLower(glossaryFormat)
	switch format {
	case formatMarkdown, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q (want markdown, json or yaml)", glossaryFormat)
	}

	result, err := assistantService.BuildGlossary(cmd.Context(), driving.GlossaryRequest{
		Citekeys:           args,
		Count:              glossaryCount,
		WordsPerDefinition: glossaryWords,
		Model:              glossaryModel,
	})
	if err != nil {
		return fmt.Errorf("glossary failed: %w", err)
	}

	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal glossary: %w", err)
		}
		cmd.Println(string(data))
	case formatYAML:
		data, err := yaml.Marshal(glossaryDocument{Citekey: result.Citekey, Entries: result.Entries})
		if err != nil {
			return fmt.Errorf("failed to marshal glossary: %w", err)
		}
		cmd.Print(string(data))
	default:
		cmd.Print(result.Entries.Markdown())
	}
	return nil
}
