// Package watch reloads an ontology file into a viewer whenever it changes
// on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/msalah0e/ontoview/internal/store"
)

// DefaultDebounce collapses the bursts of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Loader receives the new document contents.
type Loader interface {
	Load(markup string) error
}

// Watcher follows one file. It watches the parent directory so that
// editors that save by rename are still noticed.
type Watcher struct {
	path     string
	loader   Loader
	logger   *zap.Logger
	debounce time.Duration
	digest   string
	onReload func(error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// OnReload is called after every reload attempt with its result.
func OnReload(fn func(error)) Option {
	return func(w *Watcher) { w.onReload = fn }
}

// New creates a watcher for path.
func New(path string, loader Loader, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		loader:   loader,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Prime records the contents already loaded so an unchanged save is skipped.
func (w *Watcher) Prime(markup string) {
	w.digest = store.Digest(markup)
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.logger.Info("watching ontology", zap.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("ontology file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// mid-rename; the Create event that follows retries
		w.logger.Debug("ontology not readable yet", zap.Error(err))
		return
	}
	markup := string(data)
	digest := store.Digest(markup)
	if digest == w.digest {
		w.logger.Debug("ontology unchanged")
		return
	}

	err = w.loader.Load(markup)
	if err != nil {
		w.logger.Warn("reload failed, keeping current view", zap.String("path", w.path), zap.Error(err))
	} else {
		w.digest = digest
		w.logger.Info("ontology reloaded", zap.String("path", w.path))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
