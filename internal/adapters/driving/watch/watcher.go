// Package watch rebuilds document indexes when attachment files change.
//
// It watches the reference manager's storage root, where every entry owns
// one folder, and maps a changed PDF back to its citekey through the folder
// path the library reports.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// DefaultDebounce is how long a folder must stay quiet before it is reindexed.
const DefaultDebounce = 2 * time.Second

// queueSize bounds folders waiting for a rebuild.
const queueSize = 16

// Config configures a Watcher.
type Config struct {
	// Root is the attachment storage directory.
	Root string

	// Debounce delays a rebuild until writes to a folder settle.
	Debounce time.Duration
}

// Watcher rebuilds the index of a document whenever its PDF is written.
type Watcher struct {
	root     string
	debounce time.Duration
	docs     driving.DocumentService
	indexes  driving.IndexService
}

// New creates a watcher over cfg.Root.
func New(cfg Config, docs driving.DocumentService, indexes driving.IndexService) *Watcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     filepath.Clean(cfg.Root),
		debounce: debounce,
		docs:     docs,
		indexes:  indexes,
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if w.docs == nil || w.indexes == nil {
		return fmt.Errorf("watch: document and index services are required: %w", domain.ErrInvalidInput)
	}
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watch: storage root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: storage root %s is not a directory: %w", w.root, domain.ErrInvalidInput)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, w.root); err != nil {
		return err
	}
	logger.Info("watching %s for attachment changes", w.root)

	g, gctx := errgroup.WithContext(ctx)
	ready := make(chan string, queueSize)
	deb := newDebouncer(w.debounce, func(dir string) {
		select {
		case ready <- dir:
		case <-gctx.Done():
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case dir := <-ready:
				w.reindex(gctx, dir)
			}
		}
	})

	g.Go(func() error {
		defer deb.stop()
		return w.loop(gctx, fw, deb)
	})

	return g.Wait()
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, deb *debouncer) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watch: events channel closed")
			}
			w.handle(fw, deb, event)

		case err, ok := <-fw.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watch: errors channel closed")
			}
			logger.Warn("watch: %v", err)
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, deb *debouncer, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// A new entry folder may already hold its PDF before the watch is added.
			if err := addTree(fw, event.Name); err != nil {
				logger.Warn("%v", err)
			}
			if hasPDF(event.Name) {
				deb.add(filepath.Clean(event.Name))
			}
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !isPDF(event.Name) {
		return
	}
	logger.Debug("watch: %s %s", event.Op, event.Name)
	deb.add(filepath.Dir(event.Name))
}

// reindex rebuilds the index of the entry that owns dir.
func (w *Watcher) reindex(ctx context.Context, dir string) {
	citekey, err := w.citekeyFor(ctx, dir)
	if err != nil {
		logger.Warn("watch: %v", err)
		return
	}
	if citekey == "" {
		logger.Debug("watch: no library entry owns %s", dir)
		return
	}

	logger.Info("reindexing %s", citekey)
	stats, err := w.indexes.Rebuild(ctx, citekey)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("reindexing %s: %v", citekey, err)
		}
		return
	}
	if stats != nil {
		logger.Info("reindexed %s (%d chunks)", citekey, stats.RecordCount)
	}
}

func (w *Watcher) citekeyFor(ctx context.Context, dir string) (domain.Citekey, error) {
	entries, err := w.docs.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing library: %w", err)
	}
	dir = filepath.Clean(dir)
	for i := range entries {
		if entries[i].HasAttachment() && filepath.Clean(entries[i].FolderPath) == dir {
			return entries[i].Citekey, nil
		}
	}
	return "", nil
}

// addTree watches root and every directory below it.
func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch: walking %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch: adding %s: %w", path, err)
		}
		return nil
	})
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func hasPDF(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && isPDF(e.Name()) {
			return true
		}
	}
	return false
}
