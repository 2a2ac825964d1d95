package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

var (
	askDocs    []string
	askModel   string
	askWords   int
	askMode    string
	askJSON    bool
	askSources bool
)

// stdinIsTerminal reports whether ask should run an interactive session.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about one or more documents",
	Long: `Answer a question from the documents named with --doc.

Documents are indexed on first use. With several documents each one
contributes its own passages and the answer cites them as Document 1,
Document 2, and so on, in the order given.

Without a question, ask starts an interactive session when run in a
terminal, or reads the question from standard input otherwise.

Examples:
  refchat ask -d smith2020 "What dataset do the authors use?"
  refchat ask -d smith2020 -d jones2019 --mode refine "How do the methods differ?"
  echo "Summarise the findings" | refchat ask -d smith2020`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askDocs, "doc", "d", nil, "citekey of a document to ask about (repeatable)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "LLM model (default from settings)")
	askCmd.Flags().IntVarP(&askWords, "words", "w", 0, "target answer length in words (default from settings)")
	askCmd.Flags().StringVar(&askMode, "mode", "", "synthesis mode: tree_summarize or refine")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "print the retrieved passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}
	if len(askDocs) == 0 {
		return errors.New("at least one --doc citekey is required")
	}

	var mode domain.SynthesisMode
	if askMode != "" {
		parsed, ok := domain.ParseSynthesisMode(askMode)
		if !ok {
			return fmt.Errorf("unknown synthesis mode %q (want tree_summarize or refine)", askMode)
		}
		mode = parsed
	}

	req := driving.AnswerRequest{
		Citekeys:  askDocs,
		Model:     askModel,
		WordCount: askWords,
		Mode:      mode,
	}

	if question := strings.TrimSpace(strings.Join(args, " ")); question != "" {
		req.Question = question
		return askOnce(cmd, req)
	}

	if stdinIsTerminal() {
		return askInteractive(cmd, req)
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading question: %w", err)
	}
	req.Question = strings.TrimSpace(string(data))
	if req.Question == "" {
		return errors.New("no question given")
	}
	return askOnce(cmd, req)
}

func askOnce(cmd *cobra.Command, req driving.AnswerRequest) error {
	result, err := assistantService.Answer(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Text)
	if askSources {
		printSources(cmd, result.Sources)
	}
	return nil
}

// askInteractive answers one question per input line until EOF, "exit" or "quit".
// A failed question is reported and the session continues.
func askInteractive(cmd *cobra.Command, req driving.AnswerRequest) error {
	cmd.Printf("Asking about %s. Type 'exit' to quit.\n", strings.Join(req.Citekeys, ", "))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		req.Question = line
		if err := askOnce(cmd, req); err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			cmd.PrintErrf("Error: %v\n", err)
		}
		cmd.Println()
	}
}

func printSources(cmd *cobra.Command, sources []domain.SourcePassage) {
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range sources {
		label := src.Citekey
		if src.Label != "" {
			label = src.Label + ", " + src.Citekey
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, label, src.Score)
		cmd.Printf("      %s\n", snippet(src.Text, 160))
	}
}

// snippet collapses whitespace and truncates text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}
