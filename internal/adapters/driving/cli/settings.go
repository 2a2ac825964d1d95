package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change refchat settings.

Settings are stored in ~/.refchat/config.toml. Any key can be overridden by
an environment variable named after it, for example llm.base_url is read
from REFCHAT_LLM_BASE_URL. A .env file in the working directory is loaded
before settings are read.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting and save it to the config file.

Run 'refchat settings show' for the list of keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the LLM and embedding providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.PersistentFlags().BoolVar(&settingsJSON, "json", false, "output as JSON")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	pairs, err := settingsService.Display()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settingsJSON {
		out := make(map[string]string, len(pairs))
		for _, p := range pairs {
			out[p[0]] = p[1]
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\n", p[0], p[1])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

// checkResult is the JSON shape of one provider check.
type checkResult struct {
	Role     string `json:"role"`
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	checks, err := settingsService.Check(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to check providers: %w", err)
	}

	results := make([]checkResult, len(checks))
	failed := 0
	for i, c := range checks {
		results[i] = checkResult{Role: c.Role, Provider: c.Provider.String(), BaseURL: c.BaseURL, OK: c.OK()}
		if !c.OK() {
			results[i].Error = c.Err.Error()
			failed++
		}
	}

	if settingsJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	} else {
		for _, r := range results {
			status := "ok"
			if !r.OK {
				status = "FAILED: " + r.Error
			}
			cmd.Printf("%-9s %s at %s: %s\n", r.Role, r.Provider, r.BaseURL, status)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d provider(s) unreachable", failed)
	}
	return nil
}
