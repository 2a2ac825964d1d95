package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

type mockAssistantService struct {
	answer       *driving.AnswerResult
	glossary     *driving.GlossaryResult
	err          error
	answers      []driving.AnswerRequest
	lastGlossary driving.GlossaryRequest
}

func (m *mockAssistantService) Answer(_ context.Context, req driving.AnswerRequest) (*driving.AnswerResult, error) {
	m.answers = append(m.answers, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &driving.AnswerResult{Text: "answer to " + req.Question, Citekeys: req.Citekeys}, nil
}

func (m *mockAssistantService) BuildGlossary(
	_ context.Context,
	req driving.GlossaryRequest,
) (*driving.GlossaryResult, error) {
	m.lastGlossary = req
	if m.err != nil {
		return nil, m.err
	}
	if len(req.Citekeys) != 1 {
		return nil, domain.ErrUnsupportedMultiDocument
	}
	if m.glossary != nil {
		return m.glossary, nil
	}
	return &driving.GlossaryResult{Citekey: req.Citekeys[0]}, nil
}

type mockDocumentService struct {
	entries []domain.LibraryEntry
	err     error
}

func (m *mockDocumentService) Resolve(_ context.Context, citekey domain.Citekey) (*domain.DocumentMetadata, error) {
	for i := range m.entries {
		if m.entries[i].Citekey == citekey {
			return &m.entries[i].DocumentMetadata, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.LibraryEntry, error) {
	return m.entries, m.err
}

type mockIndexService struct {
	stats   []domain.IndexStats
	failing map[domain.Citekey]error
	ensured []domain.Citekey
	rebuilt []domain.Citekey
	deleted []domain.Citekey
	err     error
}

func (m *mockIndexService) build(ck domain.Citekey) (*domain.IndexStats, error) {
	if err := m.failing[ck]; err != nil {
		return nil, err
	}
	return &domain.IndexStats{Citekey: ck, RecordCount: 12, Dimensions: 384}, nil
}

func (m *mockIndexService) Ensure(_ context.Context, ck domain.Citekey) (*domain.IndexStats, error) {
	m.ensured = append(m.ensured, ck)
	return m.build(ck)
}

func (m *mockIndexService) Rebuild(_ context.Context, ck domain.Citekey) (*domain.IndexStats, error) {
	m.rebuilt = append(m.rebuilt, ck)
	return m.build(ck)
}

func (m *mockIndexService) Delete(_ context.Context, ck domain.Citekey) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, ck)
	return nil
}

func (m *mockIndexService) Status(_ context.Context) ([]domain.IndexStats, error) {
	return m.stats, m.err
}

type mockHistoryService struct {
	entries   []domain.ChatHistoryEntry
	err       error
	lastLimit int
	cleared   bool
}

func (m *mockHistoryService) Record(_ context.Context, _, _ string, _ []domain.Citekey) error {
	return m.err
}

func (m *mockHistoryService) List(_ context.Context, limit int) ([]domain.ChatHistoryEntry, error) {
	m.lastLimit = limit
	return m.entries, m.err
}

func (m *mockHistoryService) Clear(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	return nil
}

type mockModelService struct {
	models []string
	err    error
}

func (m *mockModelService) ListModels(_ context.Context) ([]string, error) {
	return m.models, m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	values      map[string]string
	validateErr error
	checks      []driving.ProviderCheck
	checkErr    error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		values:   map[string]string{"llm.model": domain.DefaultLLMModel, "llm.api_key": "****"},
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if _, ok := m.values[key]; !ok {
		return domain.ErrInvalidInput
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.model", "llm.api_key"}
}

func (m *mockSettingsService) Display() ([][2]string, error) {
	pairs := make([][2]string, 0, len(m.values))
	for _, k := range m.Keys() {
		pairs = append(pairs, [2]string{k, m.values[k]})
	}
	return pairs, nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) Check(_ context.Context) ([]driving.ProviderCheck, error) {
	return m.checks, m.checkErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

type mockWatcher struct {
	ran bool
	err error
}

func (m *mockWatcher) Run(_ context.Context) error {
	m.ran = true
	return m.err
}

// testServices holds the mocks injected by setupTestServices.
type testServices struct {
	assistant *mockAssistantService
	documents *mockDocumentService
	indexes   *mockIndexService
	history   *mockHistoryService
	models    *mockModelService
	settings  *mockSettingsService
	watcher   *mockWatcher
}

// setupTestServices injects fresh mocks and returns a cleanup func that
// removes them and resets every command flag.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		assistant: &mockAssistantService{},
		documents: &mockDocumentService{},
		indexes:   &mockIndexService{},
		history:   &mockHistoryService{},
		models:    &mockModelService{},
		settings:  newMockSettingsService(),
		watcher:   &mockWatcher{},
	}
	SetServices(Services{
		Assistant: ts.assistant,
		Documents: ts.documents,
		Indexes:   ts.indexes,
		History:   ts.history,
		Models:    ts.models,
		Settings:  ts.settings,
		Watcher:   ts.watcher,
	})

	origTerminal := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }

	return ts, func() {
		SetServices(Services{})
		stdinIsTerminal = origTerminal
		resetFlags()
	}
}

// resetFlags restores every package flag variable to its default.
func resetFlags() {
	verbose = false
	askDocs = nil
	askModel = ""
	askWords = 0
	askMode = ""
	askJSON = false
	askSources = false
	glossaryCount = 0
	glossaryWords = 0
	glossaryModel = ""
	glossaryFormat = formatMarkdown
	documentsJSON = false
	documentsIndexed = false
	indexForce = false
	indexStatusJSON = false
	historyLimit = 10
	historyJSON = false
	modelsJSON = false
	settingsJSON = false
}

// executeCommand runs the root command with args and stdin, capturing stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

var errBoom = errors.New("boom")
