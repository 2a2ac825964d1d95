package services

import (
	"fmt"

	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/logger"
)

// questionTemplate wraps user questions. Arguments: word count, question.
const questionTemplate = "In %d words, answer the question '%s' using the information in the document. " +
	"Reply as an expert in topic. Do not simplify. Use proper terminology and be precise."

// QuestionPrompt returns the question text sent to a query engine.
func QuestionPrompt(wordCount int, question string) string {
	return fmt.Sprintf(questionTemplate, wordCount, question)
}

// prompts renders named templates from an optional PromptStore.
type prompts struct {
	store driven.PromptStore
}

// render loads the named template and applies args.
// Falls back to the built-in template when the store is unset or fails.
func (p prompts) render(name string, args ...any) string {
	return fmt.Sprintf(p.load(name), args...)
}

func (p prompts) load(name string) string {
	if p.store != nil {
		tmpl, err := p.store.Load(name)
		if err == nil && tmpl != "" {
			return tmpl
		}
		if err != nil {
			logger.Warn("prompt %s: %v, using built-in template", name, err)
		}
	}
	return driven.DefaultPrompts[name]
}
