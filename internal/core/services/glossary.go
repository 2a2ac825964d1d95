package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/logger"
)

// GlossaryExtractor builds keyword glossaries for a single document.
type GlossaryExtractor struct {
	prompts prompts
}

// NewGlossaryExtractor creates a glossary extractor.
func NewGlossaryExtractor() *GlossaryExtractor {
	return &GlossaryExtractor{}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *GlossaryExtractor) SetPromptStore(store driven.PromptStore) {
	g.prompts.store = store
}

// Extract asks engine for count phrases, tops up once when fewer come back,
// and defines each phrase in wordsPerDefinition words.
// Entries keep extraction order; duplicates are preserved.
func (g *GlossaryExtractor) Extract(
	ctx context.Context,
	engine QueryEngine,
	meta domain.DocumentMetadata,
	count, wordsPerDefinition int,
) (domain.Glossary, error) {
	if count <= 0 {
		return domain.Glossary{}, nil
	}

	keywords, err := g.keywords(ctx, engine, meta, count)
	if err != nil {
		return nil, err
	}
	logger.Debug("glossary %s: %d keywords", meta.Citekey, len(keywords))

	glossary := make(domain.Glossary, 0, len(keywords))
	for _, kw := range keywords {
		prompt := g.prompts.render(driven.PromptGlossaryDefinition, meta.Tags, kw, wordsPerDefinition)
		answer, err := engine.Query(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("glossary define %q: %w", kw, err)
		}
		glossary = append(glossary, domain.GlossaryEntry{
			Keyword:    kw,
			Definition: domain.NormalizeDefinition(answer.Text),
		})
	}
	return glossary, nil
}

// keywords runs the keyword prompt plus at most one top-up prompt.
func (g *GlossaryExtractor) keywords(
	ctx context.Context, engine QueryEngine, meta domain.DocumentMetadata, count int,
) ([]string, error) {
	prompt := g.prompts.render(driven.PromptGlossaryKeywords, meta.ItemType, count, meta.Authors, meta.Tags)
	answer, err := engine.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("glossary keywords: %w", err)
	}

	keywords := domain.ParseKeywords(answer.Text)
	if len(keywords) >= count {
		return keywords[:count], nil
	}

	remaining := count - len(keywords)
	prompt = g.prompts.render(driven.PromptGlossaryTopUp, remaining, strings.Join(keywords, "; "))
	answer, err = engine.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("glossary top-up for %d keywords: %w", remaining, err)
	}

	extra := domain.ParseKeywords(answer.Text)
	if len(extra) > remaining {
		extra = extra[:remaining]
	}
	return append(keywords, extra...), nil
}
