// Package watcher feeds a directory of data files into the index:
// whenever a JSON/YAML/XML file appears or changes, its records are
// upserted through an updater handle.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quarrysearch/quarry/internal/input"
)

// Ingester is the updater surface the watcher drives.
type Ingester interface {
	Update(text string, cfg input.Config) error
	Commit() error
}

// Options configures the watcher behavior.
type Options struct {
	// Debounce is the quiet period after the last event on a file
	// before it is ingested. Default: 200ms.
	Debounce time.Duration
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{Debounce: 200 * time.Millisecond}
}

// Watcher watches one directory (non-recursive) and upserts changed
// data files.
type Watcher struct {
	dir      string
	ingester Ingester
	opts     Options
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over the given directory.
func New(dir string, ingester Ingester, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}
	return &Watcher{
		dir:      dir,
		ingester: ingester,
		opts:     opts,
		logger:   slog.Default().With(slog.String("component", "watcher")),
		timers:   make(map[string]*time.Timer),
	}
}

// Run ingests all existing data files, then watches for changes until
// the context is cancelled. Per-file failures are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.ingest(filepath.Join(w.dir, entry.Name()))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching", slog.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.cancelTimers()
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.schedule(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// schedule arms (or re-arms) the debounce timer for a path, so a
// burst of writes results in a single ingest.
func (w *Watcher) schedule(path string) {
	if _, ok := input.FormatForPath(path); !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.opts.Debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingest(path)
	})
}

func (w *Watcher) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) ingest(path string) {
	format, ok := input.FormatForPath(path)
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	cfg := input.NewConfig(format, nil, nil)
	if err := w.ingester.Update(string(data), cfg); err != nil {
		w.logger.Warn("ingest_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	if err := w.ingester.Commit(); err != nil {
		w.logger.Warn("commit_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Info("ingested", slog.String("path", path))
}
