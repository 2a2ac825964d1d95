package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/logger"
)

// contextSeparator joins passages packed into one prompt.
const contextSeparator = "\n\n"

// Synthesizer combines retrieved passages into one answer with the LLM.
type Synthesizer struct {
	llm     driven.LLMService
	prompts prompts
}

// NewSynthesizer creates a synthesizer over llm.
func NewSynthesizer(llm driven.LLMService) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *Synthesizer) SetPromptStore(store driven.PromptStore) {
	s.prompts.store = store
}

// SynthesisOptions configures one synthesis run.
type SynthesisOptions struct {
	// Mode selects refine or tree_summarize.
	Mode domain.SynthesisMode

	// Completion is passed to every LLM call.
	Completion driven.CompletionOptions

	// MaxPromptChars bounds the context packed into one tree_summarize prompt.
	MaxPromptChars int
}

// Synthesize answers query from passages, best first.
// Each context is the passage text, prefixed with its label when set.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, passages []domain.SourcePassage, opts SynthesisOptions,
) (string, error) {
	if len(passages) == 0 {
		return "", fmt.Errorf("synthesize: no passages retrieved: %w", domain.ErrNoContent)
	}

	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = passageContext(p)
	}

	switch opts.Mode {
	case domain.SynthesisRefine:
		return s.refine(ctx, query, contexts, opts.Completion)
	default:
		return s.treeSummarize(ctx, query, contexts, opts)
	}
}

// refine answers from the first context and revises the answer with each further one.
func (s *Synthesizer) refine(
	ctx context.Context, query string, contexts []string, opts driven.CompletionOptions,
) (string, error) {
	answer, err := s.complete(ctx, s.prompts.render(driven.PromptTextQA, contexts[0], query), opts)
	if err != nil {
		return "", err
	}

	for _, c := range contexts[1:] {
		revised, err := s.complete(ctx, s.prompts.render(driven.PromptRefine, query, answer, c), opts)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(revised) != "" {
			answer = revised
		}
	}
	return answer, nil
}

// treeSummarize packs contexts into prompt-sized groups, answers each group
// and repeats over the answers until a single group remains.
func (s *Synthesizer) treeSummarize(
	ctx context.Context, query string, contexts []string, opts SynthesisOptions,
) (string, error) {
	level := 0
	for {
		groups := packContexts(contexts, opts.MaxPromptChars)
		if len(groups) > 1 && len(groups) == len(contexts) {
			// Every context fills a prompt alone; pair them to make progress.
			groups = pairContexts(contexts)
		}
		logger.Debug("tree_summarize level %d: %d contexts in %d groups", level, len(contexts), len(groups))

		answers := make([]string, len(groups))
		for i, g := range groups {
			answer, err := s.complete(ctx, s.prompts.render(driven.PromptSummarize, g, query), opts.Completion)
			if err != nil {
				return "", err
			}
			answers[i] = answer
		}

		if len(answers) == 1 {
			return answers[0], nil
		}
		contexts = answers
		level++
	}
}

func (s *Synthesizer) complete(ctx context.Context, prompt string, opts driven.CompletionOptions) (string, error) {
	text, err := s.llm.Complete(ctx, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func passageContext(p domain.SourcePassage) string {
	if p.Label == "" {
		return p.Text
	}
	return p.Label + ":\n" + p.Text
}

// packContexts greedily joins contexts into groups of at most maxChars.
// A context longer than maxChars forms its own group. maxChars <= 0 packs everything together.
func packContexts(contexts []string, maxChars int) []string {
	if maxChars <= 0 {
		return []string{strings.Join(contexts, contextSeparator)}
	}

	var (
		groups []string
		cur    []string
		size   int
	)
	for _, c := range contexts {
		if len(cur) > 0 && size+len(contextSeparator)+len(c) > maxChars {
			groups = append(groups, strings.Join(cur, contextSeparator))
			cur, size = nil, 0
		}
		if len(cur) > 0 {
			size += len(contextSeparator)
		}
		cur = append(cur, c)
		size += len(c)
	}
	if len(cur) > 0 {
		groups = append(groups, strings.Join(cur, contextSeparator))
	}
	return groups
}

// pairContexts joins contexts two at a time.
func pairContexts(contexts []string) []string {
	groups := make([]string, 0, (len(contexts)+1)/2)
	for i := 0; i < len(contexts); i += 2 {
		end := min(i+2, len(contexts))
		groups = append(groups, strings.Join(contexts[i:end], contextSeparator))
	}
	return groups
}
