package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

func TestIndexManager_GetOrCreate_BuildsOnce(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()

	first, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)
	require.Len(t, first.Records(), 2)
	assert.Equal(t, 3, first.Records()[0].Dimensions())

	embedCalls := f.embedder.callCount()

	second, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.vectors.PublishCount())
	assert.Equal(t, 1, f.extractor.callCount())
	assert.Equal(t, embedCalls, f.embedder.callCount())
	assert.Equal(t, first.Manifest().SourceHash, second.Manifest().SourceHash)
	assert.Equal(t, first.Records(), second.Records())
}

func TestIndexManager_GetOrCreate_RenumbersChunksAcrossPages(t *testing.T) {
	f := newFixture(t, "smith2020")
	f.extractor.defaultPages = []string{"cat one\n\ncat two", "stock three"}

	handle, err := f.manager.GetOrCreate(context.Background(), "smith2020", nil)
	require.NoError(t, err)

	texts := make([]string, 0, 3)
	for _, r := range handle.Records() {
		texts = append(texts, r.Text)
	}
	assert.Equal(t, []string{"cat one", "cat two", "stock three"}, texts)
}

func TestIndexManager_GetOrCreate_RecoversCorruptIndex(t *testing.T) {
	f := newFixture(t, "smith2020")
	f.vectors.Corrupt("smith2020")

	handle, err := f.manager.GetOrCreate(context.Background(), "smith2020", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, handle.Records())
	assert.Equal(t, 1, f.vectors.PublishCount())

	_, _, err = f.vectors.Load(context.Background(), "smith2020")
	assert.NoError(t, err)
}

func TestIndexManager_GetOrCreate_RebuildsStaleSource(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()

	_, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.pdfPath("smith2020"), []byte("%PDF revised"), 0o600))

	_, err = f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.vectors.PublishCount())
}

func TestIndexManager_GetOrCreate_RebuildsOnModelChange(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()

	_, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)

	f.embedder.setModel("topic-v2")
	handle, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, f.vectors.PublishCount())
	assert.Equal(t, "topic-v2", handle.Manifest().EmbeddingModel)
}

func TestIndexManager_GetOrCreate_VerificationDisabled(t *testing.T) {
	f := newFixture(t, "smith2020")
	WithSourceVerification(false)(f.manager)
	ctx := context.Background()

	_, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.pdfPath("smith2020"), []byte("%PDF revised"), 0o600))
	f.embedder.setModel("topic-v2")

	_, err = f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.vectors.PublishCount())
}

func TestIndexManager_GetOrCreate_UsesIndexWhenSourceUnavailable(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()

	_, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(f.pdfPath("smith2020")))

	handle, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, handle.Records())
	assert.Equal(t, 1, f.vectors.PublishCount())
}

func TestIndexManager_GetOrCreate_UsesSuppliedMetadata(t *testing.T) {
	f := newFixture(t, "smith2020")
	meta := f.library.entries[0]

	_, err := f.manager.GetOrCreate(context.Background(), "smith2020", &meta)
	require.NoError(t, err)
	assert.Equal(t, 0, f.library.calls)
}

func TestIndexManager_GetOrCreate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		citekey string
		wantErr error
	}{
		{
			name:    "unknown citekey",
			citekey: "missing",
			wantErr: domain.ErrNotFound,
		},
		{
			name: "entry without attachment",
			setup: func(f *fixture) {
				f.library.entries = append(f.library.entries, domain.DocumentMetadata{Citekey: "nofile"})
			},
			citekey: "nofile",
			wantErr: domain.ErrNoAttachment,
		},
		{
			name: "folder without pdf",
			setup: func(f *fixture) {
				_ = os.Remove(f.pdfPath("smith2020"))
			},
			citekey: "smith2020",
			wantErr: domain.ErrNoAttachment,
		},
		{
			name: "no extractable text",
			setup: func(f *fixture) {
				f.extractor.defaultPages = []string{"", "   "}
			},
			citekey: "smith2020",
			wantErr: domain.ErrNoContent,
		},
		{
			name: "embedding provider down",
			setup: func(f *fixture) {
				f.embedder.err = domain.ErrProviderUnavailable
			},
			citekey: "smith2020",
			wantErr: domain.ErrProviderUnavailable,
		},
		{
			name: "metadata provider down",
			setup: func(f *fixture) {
				f.library.err = domain.ErrMetadataUnavailable
			},
			citekey: "smith2020",
			wantErr: domain.ErrMetadataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "smith2020")
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.manager.GetOrCreate(context.Background(), tt.citekey, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, f.vectors.Exists(tt.citekey))
		})
	}
}

func TestIndexManager_GetOrCreate_Concurrent(t *testing.T) {
	f := newFixture(t, "smith2020")

	var wg sync.WaitGroup
	handles := make([]driven.IndexHandle, 8)
	errs := make([]error, 8)
	for i := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = f.manager.GetOrCreate(context.Background(), "smith2020", nil)
		}()
	}
	wg.Wait()

	for i := range handles {
		require.NoError(t, errs[i])
		assert.Len(t, handles[i].Records(), 2)
	}
	assert.Equal(t, 1, f.vectors.PublishCount())
	assert.Equal(t, 1, f.extractor.callCount())
}

func TestIndexManager_GetOrCreate_CanceledCallerDoesNotFailOthers(t *testing.T) {
	f := newFixture(t, "smith2020")
	entered, release := f.extractor.gate(2)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := f.manager.GetOrCreate(ctxA, "smith2020", nil)
		errA <- err
	}()
	<-entered

	type result struct {
		handle driven.IndexHandle
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		h, err := f.manager.GetOrCreate(context.Background(), "smith2020", nil)
		resB <- result{h, err}
	}()

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(release)

	b := <-resB
	require.NoError(t, b.err)
	assert.Len(t, b.handle.Records(), 2)
	assert.Equal(t, 1, f.extractor.callCount())
	assert.Equal(t, 1, f.vectors.PublishCount())
}

func TestIndexManager_Rebuild_DoesNotJoinGetOrCreate(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()
	entered, release := f.extractor.gate(2)

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
		done <- err
	}()
	<-entered

	rebuilt := make(chan error, 1)
	go func() {
		_, err := f.manager.Rebuild(ctx, "smith2020")
		rebuilt <- err
	}()
	<-entered
	close(release)

	require.NoError(t, <-done)
	require.NoError(t, <-rebuilt)
	assert.Equal(t, 2, f.extractor.callCount())
	assert.Equal(t, 2, f.vectors.PublishCount())
}

func TestIndexManager_GetOrCreate_RebuildsIndexWithoutUsableRecords(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()
	empty := []domain.VectorRecord{{NodeID: "a", Citekey: "smith2020"}}
	require.NoError(t, f.vectors.Publish(ctx, domain.IndexManifest{Citekey: "smith2020"}, empty))

	handle, err := f.manager.GetOrCreate(ctx, "smith2020", nil)
	require.NoError(t, err)
	assert.Len(t, handle.Records(), 2)
	assert.Equal(t, 2, f.vectors.PublishCount())
}

func TestIndexManager_EnsureAndRebuild(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()

	stats, err := f.manager.Ensure(ctx, "smith2020")
	require.NoError(t, err)
	assert.True(t, stats.Healthy())
	assert.Equal(t, 2, stats.RecordCount)
	assert.Equal(t, 3, stats.Dimensions)

	stats, err = f.manager.Rebuild(ctx, "smith2020")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RecordCount)
	assert.Equal(t, 2, f.vectors.PublishCount())
}

func TestIndexManager_Delete(t *testing.T) {
	f := newFixture(t, "smith2020")
	ctx := context.Background()

	err := f.manager.Delete(ctx, "smith2020")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.manager.Ensure(ctx, "smith2020")
	require.NoError(t, err)

	require.NoError(t, f.manager.Delete(ctx, "smith2020"))
	assert.False(t, f.vectors.Exists("smith2020"))
}

func TestIndexManager_Status(t *testing.T) {
	f := newFixture(t, "alpha2020", "beta2021")
	ctx := context.Background()

	_, err := f.manager.Ensure(ctx, "alpha2020")
	require.NoError(t, err)
	f.vectors.Corrupt("beta2021")

	status, err := f.manager.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)

	assert.Equal(t, "alpha2020", status[0].Citekey)
	assert.True(t, status[0].Healthy())
	assert.Equal(t, "beta2021", status[1].Citekey)
	assert.False(t, status[1].Healthy())
}
