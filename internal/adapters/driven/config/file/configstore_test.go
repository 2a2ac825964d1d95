package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore(t *testing.T) {
	store, dir := newTestConfigStore(t)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "deep")

	store, err := NewConfigStore(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nested, "config.toml"), store.Path())

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(dir)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_GetAfterSet(t *testing.T) {
	store, _ := newTestConfigStore(t)

	require.NoError(t, store.Set("llm.model", "qwen2.5-7b"))
	require.NoError(t, store.Set("query.top_k", 4))

	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "qwen2.5-7b", val)

	val, ok = store.Get("query.top_k")
	assert.True(t, ok)
	assert.Equal(t, 4, val, "values keep their type until reloaded")

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	store, dir := newTestConfigStore(t)

	require.NoError(t, store.Set("llm.model", "qwen2.5-7b"))
	require.NoError(t, store.Set("llm.timeout_seconds", 400))
	require.NoError(t, store.Set("query.top_k", 2))
	require.NoError(t, store.Set("llm.temperature", 0.7))
	require.NoError(t, store.Set("llm.temperature", 0.5))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[query]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"llm.model", "llm.temperature", "llm.timeout_seconds", "query.top_k"}, reloaded.Keys())
	assertStored(t, reloaded, "llm.model", "qwen2.5-7b")
	assertStored(t, reloaded, "llm.timeout_seconds", int64(400))
	assertStored(t, reloaded, "llm.temperature", 0.5)
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `# refchat settings
[llm]
provider = "ollama"
model = "mistral"

[embedding]
requests_per_second = 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assertStored(t, store, "llm.provider", "ollama")
	assertStored(t, store, "llm.model", "mistral")
	assertStored(t, store, "embedding.requests_per_second", int64(2))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, _ := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Save(t *testing.T) {
	store, dir := newTestConfigStore(t)

	store.mu.Lock()
	store.data["manual.key"] = "manual_value"
	store.mu.Unlock()
	require.NoError(t, store.Save())

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assertStored(t, reloaded, "manual.key", "manual_value")
}

func TestConfigStore_SaveErrors(t *testing.T) {
	store, _ := newTestConfigStore(t)
	require.NoError(t, store.Set("test", "value"))

	assert.Error(t, store.Set("channel", make(chan int)))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))
	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_LoadInvalidTOML(t *testing.T) {
	store, _ := newTestConfigStore(t)
	require.NoError(t, store.Set("valid", "data"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_LoadCommentOnlyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("# Just a comment\n\n"), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, _ := newTestConfigStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("k.v", i)
			_, _ = store.Get("k.v")
			_ = store.Keys()
		}()
	}
	wg.Wait()

	_, ok := store.Get("k.v")
	assert.True(t, ok)
}

func TestUnflattenMap(t *testing.T) {
	got := unflattenMap(map[string]any{
		"top":     1,
		"a.b":     "x",
		"a.c.d":   true,
		"clash":   "leaf",
		"clash.x": 2,
	})

	assert.Equal(t, map[string]any{
		"top":   1,
		"a":     map[string]any{"b": "x", "c": map[string]any{"d": true}},
		"clash": map[string]any{"x": 2},
	}, got)
}

// assertStored checks the decoded value of key. TOML decodes integers as int64.
func assertStored(t *testing.T, store *ConfigStore, key string, want any) {
	t.Helper()
	got, ok := store.Get(key)
	require.True(t, ok, "missing %s", key)
	assert.Equal(t, want, got)
}
