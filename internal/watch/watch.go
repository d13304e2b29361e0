// Package watch reports working-tree changes live via fsnotify. It
// backs the `grit watch` command.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is one observed working-tree change.
type Event struct {
	Path string // slash-separated, relative to the repository root
	Op   string // created, modified, removed, renamed
}

// Watcher observes a repository working tree, ignoring the repository
// directory and common build output.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan Event
	logger  *zap.Logger

	ignoreDirs map[string]bool
}

// New starts watching every non-ignored directory under root.
func New(root string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		watcher: fsw,
		events:  make(chan Event, 64),
		logger:  logger,
		ignoreDirs: map[string]bool{
			".git":         true,
			".grit":        true,
			"node_modules": true,
			"vendor":       true,
			"dist":         true,
			"build":        true,
		},
	}

	if err := w.addDirs(root); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Events yields observed changes until the watcher is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and closes the event channel.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		if rel != "." && w.shouldIgnore(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnore(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") || w.ignoreDirs[part] {
			return true
		}
	}
	return false
}

func (w *Watcher) loop() {
	defer close(w.events)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		w.logger.Error("resolving event path", zap.Error(err))
		return
	}
	rel = filepath.ToSlash(rel)
	if w.shouldIgnore(rel) {
		return
	}

	var op string
	switch {
	case event.Op.Has(fsnotify.Create):
		op = "created"
		// New directories need to be watched too.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error("watching new directory", zap.Error(err))
			}
			return
		}
	case event.Op.Has(fsnotify.Write):
		op = "modified"
	case event.Op.Has(fsnotify.Remove):
		op = "removed"
	case event.Op.Has(fsnotify.Rename):
		op = "renamed"
	default:
		return
	}

	select {
	case w.events <- Event{Path: rel, Op: op}:
	default:
		w.logger.Warn("dropping watch event", zap.String("path", rel))
	}
}
