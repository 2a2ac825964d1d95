package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

type assistantFixture struct {
	*fixture
	llm       *mockLLM
	history   *HistoryService
	assistant *AssistantService
}

func newAssistantFixture(t *testing.T, citekeys ...string) *assistantFixture {
	t.Helper()

	f := newFixture(t, citekeys...)
	llm := &mockLLM{}
	history := NewHistoryService(memory.NewHistoryStore())
	assistant := NewAssistantService(
		f.docs, f.manager, f.embedder, NewSynthesizer(llm), NewGlossaryExtractor(), history,
		domain.DefaultAppSettings(),
	)
	return &assistantFixture{fixture: f, llm: llm, history: history, assistant: assistant}
}

func TestAssistantService_Answer_SingleDocument(t *testing.T) {
	f := newAssistantFixture(t, "smith2020")

	result, err := f.assistant.Answer(context.Background(), driving.AnswerRequest{
		Citekeys: []domain.Citekey{"smith2020"},
		Question: "  What did the cat do?  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "answer 1", result.Text)
	assert.Equal(t, []domain.Citekey{"smith2020"}, result.Citekeys)
	assert.Len(t, result.Sources, 2)

	prompts := f.llm.recorded()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "In 300 words, answer the question 'What did the cat do?'")
	assert.Equal(t, domain.DefaultLLMModel, f.llm.opts[0].Model)
	assert.Equal(t, domain.DefaultSampling(), f.llm.opts[0].Sampling)

	entries, err := f.history.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "What did the cat do?", entries[0].Question)
	assert.Equal(t, "answer 1", entries[0].Answer)
}

func TestAssistantService_Answer_RequestOverrides(t *testing.T) {
	f := newAssistantFixture(t, "smith2020")

	_, err := f.assistant.Answer(context.Background(), driving.AnswerRequest{
		Citekeys:  []domain.Citekey{"smith2020"},
		Question:  "cat?",
		Model:     "qwen2.5-7b",
		WordCount: 50,
		Mode:      domain.SynthesisRefine,
	})
	require.NoError(t, err)

	prompts := f.llm.recorded()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "In 50 words")
	assert.Equal(t, "qwen2.5-7b", f.llm.opts[1].Model)
}

func TestAssistantService_Answer_MultipleDocuments(t *testing.T) {
	f := newAssistantFixture(t, "smith2020", "jones2021", "lee2022")

	result, err := f.assistant.Answer(context.Background(), driving.AnswerRequest{
		Citekeys: []domain.Citekey{"lee2022", "smith2020", "jones2021"},
		Question: "cat?",
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Citekey{"lee2022", "smith2020", "jones2021"}, result.Citekeys)
	labels := make(map[string]string)
	for _, p := range result.Sources {
		labels[p.Citekey] = p.Label
	}
	assert.Equal(t, "Document 1", labels["lee2022"])
	assert.Equal(t, "Document 2", labels["smith2020"])
	assert.Equal(t, "Document 3", labels["jones2021"])
}

func TestAssistantService_Answer_DropsFailedDocuments(t *testing.T) {
	f := newAssistantFixture(t, "smith2020")

	result, err := f.assistant.Answer(context.Background(), driving.AnswerRequest{
		Citekeys: []domain.Citekey{"missing", "smith2020"},
		Question: "cat?",
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Citekey{"smith2020"}, result.Citekeys)
	assert.NotContains(t, f.llm.recorded()[0], "Document 1")
}

func TestAssistantService_Answer_AllDocumentsFail(t *testing.T) {
	f := newAssistantFixture(t)
	f.library.entries = append(f.library.entries, domain.DocumentMetadata{Citekey: "nofile"})

	_, err := f.assistant.Answer(context.Background(), driving.AnswerRequest{
		Citekeys: []domain.Citekey{"missing", "nofile"},
		Question: "cat?",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoValidIndexes)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrNoAttachment)
	assert.Equal(t, domain.KindNoValidIndexes, domain.ErrorKind(err))
	assert.Empty(t, f.llm.recorded())

	entries, err := f.history.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssistantService_Answer_InvalidInput(t *testing.T) {
	f := newAssistantFixture(t, "smith2020")

	_, err := f.assistant.Answer(context.Background(), driving.AnswerRequest{Citekeys: []domain.Citekey{"smith2020"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.assistant.Answer(context.Background(), driving.AnswerRequest{Question: "cat?"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.assistant.Answer(context.Background(), driving.AnswerRequest{
		Citekeys: []domain.Citekey{"smith2020"},
		Question: "cat?",
		Mode:     "compact",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.llm.recorded())
}

func TestAssistantService_Answer_ProviderFailure(t *testing.T) {
	f := newAssistantFixture(t, "smith2020")
	f.llm.respond = func(int, string) (string, error) { return "", domain.ErrProviderTimeout }

	_, err := f.assistant.Answer(context.Background(), driving.AnswerRequest{
		Citekeys: []domain.Citekey{"smith2020"},
		Question: "cat?",
	})
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
	assert.True(t, f.vectors.Exists("smith2020"))
}

func TestAssistantService_BuildGlossary(t *testing.T) {
	f := newAssistantFixture(t, "smith2020")
	f.llm.respond = func(_ int, prompt string) (string, error) {
		if strings.Contains(prompt, "key technical concepts") {
			return "Feline rest; Price rally", nil
		}
		return "**Term**\nA precise definition.", nil
	}

	result, err := f.assistant.BuildGlossary(context.Background(), driving.GlossaryRequest{
		Citekeys: []domain.Citekey{"smith2020"},
		Count:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, "smith2020", result.Citekey)
	assert.Equal(t, []string{"Feline rest", "Price rally"}, result.Entries.Keywords())
	for _, e := range result.Entries {
		assert.Equal(t, "A precise definition.", e.Definition)
	}

	entries, err := f.history.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Generate glossary 2 mode keywords", entries[0].Question)
	assert.Contains(t, entries[0].Answer, "**Feline rest**: A precise definition.")
}

func TestAssistantService_BuildGlossary_Validation(t *testing.T) {
	f := newAssistantFixture(t, "smith2020", "jones2021")

	_, err := f.assistant.BuildGlossary(context.Background(), driving.GlossaryRequest{
		Citekeys: []domain.Citekey{"smith2020", "jones2021"},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedMultiDocument)
	assert.False(t, f.vectors.Exists("smith2020"))

	_, err = f.assistant.BuildGlossary(context.Background(), driving.GlossaryRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.assistant.BuildGlossary(context.Background(), driving.GlossaryRequest{
		Citekeys: []domain.Citekey{"missing"},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
