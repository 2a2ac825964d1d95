package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

type mockDocumentService struct {
	entries []domain.LibraryEntry
	err     error
}

func (m *mockDocumentService) Resolve(_ context.Context, _ domain.Citekey) (*domain.DocumentMetadata, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.LibraryEntry, error) {
	return m.entries, m.err
}

type mockIndexService struct {
	mu       sync.Mutex
	rebuilds []domain.Citekey
	err      error
}

func (m *mockIndexService) Ensure(_ context.Context, ck domain.Citekey) (*domain.IndexStats, error) {
	return &domain.IndexStats{Citekey: ck}, nil
}

func (m *mockIndexService) Rebuild(_ context.Context, ck domain.Citekey) (*domain.IndexStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuilds = append(m.rebuilds, ck)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IndexStats{Citekey: ck, RecordCount: 3}, nil
}

func (m *mockIndexService) Delete(_ context.Context, _ domain.Citekey) error { return nil }

func (m *mockIndexService) Status(_ context.Context) ([]domain.IndexStats, error) { return nil, nil }

func (m *mockIndexService) rebuilt() []domain.Citekey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Citekey(nil), m.rebuilds...)
}

func entry(citekey, folder string) domain.LibraryEntry {
	return domain.LibraryEntry{DocumentMetadata: domain.DocumentMetadata{Citekey: citekey, FolderPath: folder}}
}

// startWatcher runs w in the background and stops it when the test ends.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give the watcher time to register the tree.
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_RebuildsOnPDFWrite(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "ABCD1234")
	require.NoError(t, os.Mkdir(folder, 0o755))

	docs := &mockDocumentService{entries: []domain.LibraryEntry{
		entry("other2019", filepath.Join(root, "ZZZZ0000")),
		entry("smith2020", folder),
	}}
	indexes := &mockIndexService{}
	startWatcher(t, New(Config{Root: root, Debounce: 30 * time.Millisecond}, docs, indexes))

	pdf := filepath.Join(folder, "paper.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600))
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n% more"), 0o600))

	require.Eventually(t, func() bool { return len(indexes.rebuilt()) > 0 }, 2*time.Second, 10*time.Millisecond)
	for _, ck := range indexes.rebuilt() {
		assert.Equal(t, "smith2020", ck)
	}
}

func TestWatcher_NewFolderWithPDF(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "NEWFOLDR")

	docs := &mockDocumentService{entries: []domain.LibraryEntry{entry("doe2021", folder)}}
	indexes := &mockIndexService{}
	startWatcher(t, New(Config{Root: root, Debounce: 30 * time.Millisecond}, docs, indexes))

	// Populate the folder elsewhere and move it in so the PDF exists before any watch on it.
	staging := filepath.Join(t.TempDir(), "staging")
	require.NoError(t, os.Mkdir(staging, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "doe.PDF"), []byte("%PDF"), 0o600))
	require.NoError(t, os.Rename(staging, folder))

	require.Eventually(t, func() bool { return len(indexes.rebuilt()) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "doe2021", indexes.rebuilt()[0])
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "ABCD1234")
	require.NoError(t, os.Mkdir(folder, 0o755))

	docs := &mockDocumentService{entries: []domain.LibraryEntry{entry("smith2020", folder)}}
	indexes := &mockIndexService{}
	startWatcher(t, New(Config{Root: root, Debounce: 20 * time.Millisecond}, docs, indexes))

	require.NoError(t, os.WriteFile(filepath.Join(folder, ".zotero-ft-cache"), []byte("text"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("text"), 0o600))

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, indexes.rebuilt())
}

func TestWatcher_Run(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		w := New(Config{Root: filepath.Join(t.TempDir(), "missing")}, &mockDocumentService{}, &mockIndexService{})
		assert.Error(t, w.Run(context.Background()))
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "storage")
		require.NoError(t, os.WriteFile(file, nil, 0o600))
		w := New(Config{Root: file}, &mockDocumentService{}, &mockIndexService{})
		assert.ErrorIs(t, w.Run(context.Background()), domain.ErrInvalidInput)
	})

	t.Run("missing services", func(t *testing.T) {
		w := New(Config{Root: t.TempDir()}, nil, nil)
		assert.ErrorIs(t, w.Run(context.Background()), domain.ErrInvalidInput)
	})

	t.Run("cancelled context returns nil", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w := New(Config{Root: t.TempDir()}, &mockDocumentService{}, &mockIndexService{})
		assert.NoError(t, w.Run(ctx))
	})
}

func TestWatcher_citekeyFor(t *testing.T) {
	ctx := context.Background()
	docs := &mockDocumentService{entries: []domain.LibraryEntry{
		entry("nofile", ""),
		entry("smith2020", "/z/storage/ABCD/"),
	}}
	w := New(Config{Root: "/z/storage"}, docs, &mockIndexService{})

	ck, err := w.citekeyFor(ctx, "/z/storage/ABCD")
	require.NoError(t, err)
	assert.Equal(t, "smith2020", ck)

	ck, err = w.citekeyFor(ctx, "/z/storage/OTHER")
	require.NoError(t, err)
	assert.Empty(t, ck)

	docs.err = errors.New("zotero down")
	_, err = w.citekeyFor(ctx, "/z/storage/ABCD")
	assert.Error(t, err)
}

func TestWatcher_reindexSurvivesFailure(t *testing.T) {
	folder := "/z/storage/ABCD"
	indexes := &mockIndexService{err: domain.ErrNoContent}
	w := New(Config{Root: "/z/storage"}, &mockDocumentService{entries: []domain.LibraryEntry{entry("a", folder)}}, indexes)

	w.reindex(context.Background(), folder)
	w.reindex(context.Background(), folder)

	assert.Len(t, indexes.rebuilt(), 2)
}

func TestNew_DefaultDebounce(t *testing.T) {
	w := New(Config{Root: "/tmp/x/"}, nil, nil)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Equal(t, "/tmp/x", w.root)
}
