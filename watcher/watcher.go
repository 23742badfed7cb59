// Package watcher turns file system activity under a library root into
// debounced batches of document changes.
package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lexandro/libindex-mcp/ignore"
)

// Filter decides which directories are watched and which files are reported.
type Filter interface {
	ShouldIgnoreDir(absolutePath string) bool
	IsDocument(absolutePath string) bool
}

// Options configures a Watcher.
type Options struct {
	RootDir  string
	Filter   Filter
	Interval time.Duration
	Logger   *slog.Logger
}

// Watcher watches a library recursively. Batches carry root-relative,
// slash-separated paths of documents and ignore files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	filter    Filter
	rootDir   string
	logger    *slog.Logger
	started   atomic.Bool
	done      chan struct{}
}

// New creates a watcher and registers every non-ignored directory under the root.
func New(options Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(options.Interval),
		filter:    options.Filter,
		rootDir:   options.RootDir,
		logger:    logger,
		done:      make(chan struct{}),
	}

	watched := 0
	err = filepath.WalkDir(w.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootDir && w.filter.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if watchErr := fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
			return nil
		}
		watched++
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("walking %s: %w", w.rootDir, err)
	}

	w.logger.Debug("watching library", "root", w.rootDir, "directories", watched)
	return w, nil
}

// Changes returns the channel of debounced batches. It is closed by Close.
func (w *Watcher) Changes() <-chan []Change {
	return w.debouncer.Output()
}

// Start forwards file system events to the debouncer until Close is called.
// Call this in a goroutine.
func (w *Watcher) Start() {
	w.started.Store(true)
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if !w.filter.ShouldIgnoreDir(path) {
				w.watchTree(path)
			}
			return
		}
	}

	if !ignore.IsIgnoreFile(path) && !w.filter.IsDocument(path) {
		return
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	relPath, err := filepath.Rel(w.rootDir, path)
	if err != nil {
		return
	}
	w.debouncer.Add(filepath.ToSlash(relPath), op)
}

// watchTree adds a newly created directory and its subdirectories, and reports
// the documents already inside it. A whole folder moved into the library
// arrives as a single create event.
func (w *Watcher) watchTree(dir string) {
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.filter.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return nil
		}
		if w.filter.IsDocument(path) {
			if relPath, err := filepath.Rel(w.rootDir, path); err == nil {
				w.debouncer.Add(filepath.ToSlash(relPath), OpCreate)
			}
		}
		return nil
	})
}

// Close stops the watcher, discards pending changes and closes Changes.
func (w *Watcher) Close() error {
	err := w.fsWatcher.Close()
	if w.started.Load() {
		<-w.done
	}
	w.debouncer.Stop()
	return err
}
