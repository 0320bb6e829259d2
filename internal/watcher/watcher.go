// Package watcher reloads catalog entries when the media tree changes on
// disk.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oliveplex/oliveplex/internal/directory"
	"github.com/oliveplex/oliveplex/internal/jobs"
)

// Watcher monitors the media root recursively and dispatches a reload of
// the containing folder after events settle. Events are debounced per
// directory; a batch copy of twenty episodes triggers one reload.
type Watcher struct {
	resolver   *directory.Resolver
	dispatcher jobs.Dispatcher
	watcher    *fsnotify.Watcher

	mu       sync.Mutex
	watched  map[string]bool
	debounce map[string]*time.Timer
	stop     chan struct{}
}

func New(resolver *directory.Resolver, dispatcher jobs.Dispatcher) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		resolver:   resolver,
		dispatcher: dispatcher,
		watcher:    fw,
		watched:    make(map[string]bool),
		debounce:   make(map[string]*time.Timer),
		stop:       make(chan struct{}),
	}, nil
}

// Start watches the whole media tree and begins processing events.
func (w *Watcher) Start() {
	go w.eventLoop()
	w.mu.Lock()
	if err := w.addRecursive(w.resolver.Root().AbsolutePath()); err != nil {
		log.Printf("[watcher] error adding media root: %v", err)
	}
	count := len(w.watched)
	w.mu.Unlock()
	log.Printf("[watcher] filesystem watcher started, watching %d directories", count)
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible dirs
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return nil
			}
			w.watched[path] = true
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Skip hidden files and temp files
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") ||
		strings.HasSuffix(base, ".part") {
		return
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	// New directories join the watch set and reload their parent.
	dir := filepath.Dir(event.Name)
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if err := w.addRecursive(event.Name); err == nil {
				w.watched[event.Name] = true
			}
			w.mu.Unlock()
		}
	}

	w.scheduleReload(dir)
}

// scheduleReload resets the per-directory debounce timer.
func (w *Watcher) scheduleReload(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[dir]; ok {
		timer.Stop()
	}
	w.debounce[dir] = time.AfterFunc(1*time.Second, func() {
		w.mu.Lock()
		delete(w.debounce, dir)
		w.mu.Unlock()
		w.reload(dir)
	})
}

func (w *Watcher) reload(dir string) {
	confirmed, err := w.resolver.Resolve(dir)
	if err != nil {
		// The directory itself is gone; refresh its parent instead.
		parent := filepath.Dir(dir)
		if confirmed, err = w.resolver.Resolve(parent); err != nil {
			log.Printf("[watcher] cannot resolve %s: %v", dir, err)
			return
		}
	}
	if _, err := w.dispatcher.Reload(string(confirmed.RelativePath())); err != nil {
		log.Printf("[watcher] reload dispatch failed for %s: %v", dir, err)
	}
}
