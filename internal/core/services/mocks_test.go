package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

var errMock = errors.New("mock failure")

// mockLibrary serves a fixed set of entries.
type mockLibrary struct {
	mu      sync.Mutex
	entries []domain.DocumentMetadata
	err     error
	calls   int
}

func (m *mockLibrary) ListEntries(_ context.Context) ([]domain.DocumentMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.DocumentMetadata, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// mockExtractor returns pages per path, or the default pages.
// When release is set, each call signals entered and waits for release to close.
type mockExtractor struct {
	mu           sync.Mutex
	pages        map[string][]string
	defaultPages []string
	err          error
	calls        int
	entered      chan struct{}
	release      chan struct{}
}

func (m *mockExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	m.mu.Lock()
	m.calls++
	entered, release := m.entered, m.release
	m.mu.Unlock()

	if release != nil {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.pages[path]; ok {
		return p, nil
	}
	return m.defaultPages, nil
}

// gate makes Extract block until the returned release is closed.
func (m *mockExtractor) gate(buffer int) (entered chan struct{}, release chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entered = make(chan struct{}, buffer)
	m.release = make(chan struct{})
	return m.entered, m.release
}

func (m *mockExtractor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// paragraphChunker splits text on blank lines.
type paragraphChunker struct{}

func (paragraphChunker) Name() string { return "paragraph" }

func (paragraphChunker) Chunk(_ context.Context, text string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, domain.Chunk{Content: p, Position: len(chunks)})
		}
	}
	return chunks
}

// topicEmbedder maps text onto a cat/stock/other space.
type topicEmbedder struct {
	mu    sync.Mutex
	model string
	err   error
	calls int
}

func newTopicEmbedder() *topicEmbedder {
	return &topicEmbedder{model: "topic-v1"}
}

func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "cat")),
		float32(strings.Count(lower, "stock")),
		0.1,
	}
}

func (e *topicEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return topicVector(text), nil
}

func (e *topicEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = topicVector(t)
	}
	return out, nil
}

func (e *topicEmbedder) ModelName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

func (e *topicEmbedder) Ping(_ context.Context) error { return nil }
func (e *topicEmbedder) Close() error                 { return nil }

func (e *topicEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *topicEmbedder) setModel(model string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = model
}

// mockLLM records prompts and answers through respond.
type mockLLM struct {
	mu      sync.Mutex
	prompts []string
	opts    []driven.CompletionOptions
	respond func(n int, prompt string) (string, error)
	models  []string
	listErr error
	lists   int
}

func (m *mockLLM) Complete(_ context.Context, prompt string, opts driven.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	n := len(m.prompts)
	respond := m.respond
	m.mu.Unlock()

	if respond == nil {
		return fmt.Sprintf("answer %d", n), nil
	}
	return respond(n, prompt)
}

func (m *mockLLM) ListModels(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.models, nil
}

func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// mockEngine answers queries through respond.
type mockEngine struct {
	queries []string
	respond func(n int, question string) (domain.Answer, error)
}

func (e *mockEngine) Query(_ context.Context, question string) (domain.Answer, error) {
	e.queries = append(e.queries, question)
	return e.respond(len(e.queries), question)
}

// mockPromptStore overrides selected templates.
type mockPromptStore struct {
	templates map[string]string
	err       error
}

func (s *mockPromptStore) Load(name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.templates[name], nil
}

func (s *mockPromptStore) Reload() {}

const testPage = "The cat sat on the mat.\n\nStock prices rose today."

// fixture wires an IndexManager over in-memory collaborators and a temp library.
type fixture struct {
	dir       string
	library   *mockLibrary
	extractor *mockExtractor
	embedder  *topicEmbedder
	vectors   *memory.VectorStore
	docs      *DocumentService
	indexes   *IndexStore
	manager   *IndexManager
}

func newFixture(t *testing.T, citekeys ...string) *fixture {
	t.Helper()

	f := &fixture{
		dir:       t.TempDir(),
		library:   &mockLibrary{},
		extractor: &mockExtractor{defaultPages: []string{testPage}},
		embedder:  newTopicEmbedder(),
		vectors:   memory.NewVectorStore(),
	}
	for _, ck := range citekeys {
		f.addDocument(t, ck)
	}

	f.docs = NewDocumentService(f.library, f.vectors)
	f.indexes = NewIndexStore(f.vectors, f.embedder)
	f.manager = NewIndexManager(f.docs, f.extractor, paragraphChunker{}, f.indexes, f.embedder)
	return f
}

// addDocument creates <dir>/<citekey>/<citekey>.pdf and a library entry for it.
func (f *fixture) addDocument(t *testing.T, citekey string) string {
	t.Helper()

	folder := filepath.Join(f.dir, citekey)
	require.NoError(t, os.MkdirAll(folder, 0o755))
	path := filepath.Join(folder, citekey+".pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF "+citekey), 0o600))

	f.library.entries = append(f.library.entries, domain.DocumentMetadata{
		Citekey:    citekey,
		Title:      "Title of " + citekey,
		Authors:    "Doe, Jane",
		Tags:       "cats, markets",
		ItemType:   "article",
		FolderPath: folder,
	})
	return path
}

func (f *fixture) pdfPath(citekey string) string {
	return filepath.Join(f.dir, citekey, citekey+".pdf")
}
