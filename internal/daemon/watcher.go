package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// Watcher reports writes to a content file (YAML snapshot or SQLite database).
// The parent directory is watched so editors that replace the file by rename
// are still seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching path's directory.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: w}, nil
}

// relevant reports whether ev touches the watched file or its SQLite journal.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	name := filepath.Clean(ev.Name)
	if name != w.path && name != w.path+"-wal" && name != w.path+"-journal" {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Run calls notify for every relevant change until ctx is done or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context, notify func(reason string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Remove != 0 && filepath.Clean(ev.Name) == w.path {
				slog.Warn("Content file removed", logfields.File(ev.Name))
				continue
			}
			if w.relevant(ev) {
				slog.Debug("Content change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
				notify("watch")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Content watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error { return w.watcher.Close() }
