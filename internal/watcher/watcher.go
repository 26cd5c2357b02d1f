// Package watcher re-ingests the document directory when its contents
// change, debouncing bursts of filesystem events into one rebuild.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// DefaultDebounce is the quiet period required before a rebuild runs.
const DefaultDebounce = time.Second

// Watcher triggers an index rebuild after filesystem changes settle.
type Watcher struct {
	ingestor driving.Ingestor
	dir      string
	debounce time.Duration
}

// New creates a watcher over dir. debounce <= 0 uses the default.
func New(ingestor driving.Ingestor, dir string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		ingestor: ingestor,
		dir:      dir,
		debounce: debounce,
	}
}

// Run watches until the context is cancelled. Rebuild failures are
// logged and watching continues; only watch-infrastructure failures
// end the loop.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.dir); err != nil {
		return err
	}
	logger.Info("Watching %s for changes", w.dir)

	// The timer starts stopped; the first event arms it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)

			// Watch newly created subdirectories too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, event.Name); err != nil {
						logger.Warn("Watching new directory %s: %v", event.Name, err)
					}
				}
			}

			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case <-timer.C:
			logger.Info("Documents changed, rebuilding index")
			if _, err := w.ingestor.Ingest(ctx); err != nil {
				logger.Warn("Rebuild failed: %v", err)
			}
		}
	}
}

// relevant filters events that cannot affect index contents.
func relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
}

// addRecursive watches dir and every non-hidden subdirectory.
func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
