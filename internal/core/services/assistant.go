package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// AssistantService is the request surface for answers and glossaries.
type AssistantService struct {
	docs     driving.DocumentService
	indexes  *IndexManager
	embedder driven.EmbeddingService
	synth    *Synthesizer
	glossary *GlossaryExtractor
	history  driving.HistoryService
	settings domain.AppSettings
}

// NewAssistantService creates a new assistant.
// history may be nil to disable recording.
func NewAssistantService(
	docs driving.DocumentService,
	indexes *IndexManager,
	embedder driven.EmbeddingService,
	synth *Synthesizer,
	glossary *GlossaryExtractor,
	history driving.HistoryService,
	settings domain.AppSettings,
) *AssistantService {
	return &AssistantService{
		docs:     docs,
		indexes:  indexes,
		embedder: embedder,
		synth:    synth,
		glossary: glossary,
		history:  history,
		settings: settings,
	}
}

// Answer answers a question from one or more documents.
func (s *AssistantService) Answer(ctx context.Context, req driving.AnswerRequest) (*driving.AnswerResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}
	if len(req.Citekeys) == 0 {
		return nil, fmt.Errorf("no documents selected: %w", domain.ErrInvalidInput)
	}
	if req.Mode != "" && !req.Mode.IsValid() {
		return nil, fmt.Errorf("unknown synthesis mode %q: %w", req.Mode, domain.ErrInvalidInput)
	}

	cfg := domain.RequestConfig{
		Model:     req.Model,
		WordCount: req.WordCount,
		Mode:      req.Mode,
	}.WithDefaults(s.settings)

	logger.Section("Answer")
	logger.Debug("Question: %q, documents: %v, model: %s, mode: %s", question, req.Citekeys, cfg.Model, cfg.Mode)

	handles, err := s.resolve(ctx, req.Citekeys)
	if err != nil {
		return nil, err
	}

	engine, err := Compose(handles, s.embedder, s.synth, s.composeOptions(cfg))
	if err != nil {
		return nil, err
	}

	answer, err := engine.Query(ctx, QuestionPrompt(cfg.WordCount, question))
	if err != nil {
		return nil, err
	}

	used := make([]domain.Citekey, len(handles))
	for i, h := range handles {
		used[i] = h.Citekey()
	}

	s.record(ctx, question, answer.Text, used)
	return &driving.AnswerResult{Text: answer.Text, Citekeys: used, Sources: answer.Sources}, nil
}

// BuildGlossary extracts keyword definitions from a single document.
func (s *AssistantService) BuildGlossary(
	ctx context.Context, req driving.GlossaryRequest,
) (*driving.GlossaryResult, error) {
	switch {
	case len(req.Citekeys) == 0:
		return nil, fmt.Errorf("no document selected: %w", domain.ErrInvalidInput)
	case len(req.Citekeys) > 1:
		return nil, fmt.Errorf("glossary for %d documents: %w", len(req.Citekeys), domain.ErrUnsupportedMultiDocument)
	}

	count := req.Count
	if count <= 0 {
		count = s.settings.Glossary.Count
	}
	words := req.WordsPerDefinition
	if words <= 0 {
		words = s.settings.Glossary.WordsPerDefinition
	}
	cfg := domain.RequestConfig{Model: req.Model, Mode: domain.SynthesisRefine}.WithDefaults(s.settings)

	citekey := req.Citekeys[0]
	logger.Section("Glossary " + citekey)

	meta, err := s.docs.Resolve(ctx, citekey)
	if err != nil {
		return nil, err
	}
	handle, err := s.indexes.GetOrCreate(ctx, citekey, meta)
	if err != nil {
		return nil, err
	}

	engine, err := Compose([]driven.IndexHandle{handle}, s.embedder, s.synth, s.composeOptions(cfg))
	if err != nil {
		return nil, err
	}

	entries, err := s.glossary.Extract(ctx, engine, *meta, count, words)
	if err != nil {
		return nil, err
	}

	s.record(ctx, fmt.Sprintf("Generate glossary %d mode keywords", count), entries.Markdown(), []domain.Citekey{citekey})
	return &driving.GlossaryResult{Citekey: citekey, Entries: entries}, nil
}

// indexResult keeps a per-citekey outcome in input order.
type indexResult struct {
	handle driven.IndexHandle
	err    error
}

// resolve builds or opens the index of every citekey with bounded parallelism.
// Failed citekeys are logged and dropped.
func (s *AssistantService) resolve(ctx context.Context, citekeys []domain.Citekey) ([]driven.IndexHandle, error) {
	results := make([]indexResult, len(citekeys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.settings.Index.Concurrency))
	for i, citekey := range citekeys {
		g.Go(func() error {
			meta, err := s.docs.Resolve(gctx, citekey)
			if err == nil {
				results[i].handle, err = s.indexes.GetOrCreate(gctx, citekey, meta)
			}
			results[i].err = err
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handles := make([]driven.IndexHandle, 0, len(citekeys))
	var errs []error
	for i, r := range results {
		if r.err != nil {
			logger.Warn("document %s dropped (%s): %v", citekeys[i], domain.ErrorKind(r.err), r.err)
			errs = append(errs, r.err)
			continue
		}
		handles = append(handles, r.handle)
	}

	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoValidIndexes, errors.Join(errs...))
	}
	return handles, nil
}

func (s *AssistantService) composeOptions(cfg domain.RequestConfig) ComposeOptions {
	return ComposeOptions{
		TopK: cfg.TopK,
		Synthesis: SynthesisOptions{
			Mode:           cfg.Mode,
			MaxPromptChars: cfg.MaxPromptChars,
			Completion: driven.CompletionOptions{
				Model:    cfg.Model,
				Sampling: cfg.Sampling,
			},
		},
	}
}

// record appends to history. Failures are logged, not surfaced.
func (s *AssistantService) record(ctx context.Context, question, answer string, citekeys []domain.Citekey) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, question, answer, citekeys); err != nil {
		logger.Warn("chat history: %v", err)
	}
}
