package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/logger"
)

// QueryEngine answers questions over one or more indexes.
// Engines are per request and never mutate storage.
type QueryEngine interface {
	Query(ctx context.Context, question string) (domain.Answer, error)
}

// ComposeOptions configures a query engine.
type ComposeOptions struct {
	// TopK is the number of passages retrieved per index.
	TopK int

	// Synthesis configures how passages become an answer.
	Synthesis SynthesisOptions
}

// Compose returns a query engine over handles.
// One handle yields a direct engine; several yield a composed engine that
// labels each index "Document N" in input order.
func Compose(
	handles []driven.IndexHandle,
	embedder driven.EmbeddingService,
	synth *Synthesizer,
	opts ComposeOptions,
) (QueryEngine, error) {
	switch len(handles) {
	case 0:
		return nil, domain.ErrNoValidIndexes
	case 1:
		return &directEngine{
			handle:   handles[0],
			embedder: embedder,
			synth:    synth,
			opts:     opts,
		}, nil
	}

	var all []domain.VectorRecord
	for _, h := range handles {
		all = append(all, h.Records()...)
	}
	_, dim, dropped := domain.FilterDominantDimension(all)
	if dropped > 0 {
		logger.Warn("composed query: dropped %d of %d records not matching dimension %d", dropped, len(all), dim)
	}

	leaves := make([]leaf, len(handles))
	for i, h := range handles {
		leaves[i] = leaf{
			label:  fmt.Sprintf("Document %d", i+1),
			handle: NewIndexHandle(h.Manifest(), domain.FilterByDimension(h.Records(), dim)),
		}
	}

	return &composedEngine{
		leaves:   leaves,
		embedder: embedder,
		synth:    synth,
		opts:     opts,
	}, nil
}

// directEngine queries a single index without labels.
type directEngine struct {
	handle   driven.IndexHandle
	embedder driven.EmbeddingService
	synth    *Synthesizer
	opts     ComposeOptions
}

func (e *directEngine) Query(ctx context.Context, question string) (domain.Answer, error) {
	query, err := embedQuestion(ctx, e.embedder, question)
	if err != nil {
		return domain.Answer{}, err
	}

	passages := e.handle.Retrieve(query, e.opts.TopK)
	return synthesizeAnswer(ctx, e.synth, question, passages, e.opts.Synthesis)
}

// leaf is one labelled index under the composed root.
type leaf struct {
	label  string
	handle driven.IndexHandle
}

// composedEngine retrieves from every leaf and synthesises once.
type composedEngine struct {
	leaves   []leaf
	embedder driven.EmbeddingService
	synth    *Synthesizer
	opts     ComposeOptions
}

func (e *composedEngine) Query(ctx context.Context, question string) (domain.Answer, error) {
	query, err := embedQuestion(ctx, e.embedder, question)
	if err != nil {
		return domain.Answer{}, err
	}

	var passages []domain.SourcePassage
	for _, l := range e.leaves {
		for _, p := range l.handle.Retrieve(query, e.opts.TopK) {
			p.Label = l.label
			passages = append(passages, p)
		}
	}
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	logger.Debug("composed query: %d passages from %d documents", len(passages), len(e.leaves))

	return synthesizeAnswer(ctx, e.synth, question, passages, e.opts.Synthesis)
}

func embedQuestion(ctx context.Context, embedder driven.EmbeddingService, question string) ([]float32, error) {
	query, err := embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return query, nil
}

func synthesizeAnswer(
	ctx context.Context,
	synth *Synthesizer,
	question string,
	passages []domain.SourcePassage,
	opts SynthesisOptions,
) (domain.Answer, error) {
	text, err := synth.Synthesize(ctx, question, passages, opts)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: domain.StripHTML(text), Sources: passages}, nil
}
