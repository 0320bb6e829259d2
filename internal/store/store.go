// Package store persists small JSON state files with a version header and
// forward-only migrations. Writes are batched: mutations mark the store
// dirty and a background loop flushes on an interval, with a final flush
// on close.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Migrator upgrades the raw data payload from one version to the next.
type Migrator func(raw json.RawMessage) (json.RawMessage, error)

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Store owns one JSON file. T is the in-memory shape of the payload.
type Store[T any] struct {
	path      string
	version   int
	migrators map[int]Migrator

	mu    sync.Mutex
	data  T
	dirty bool

	stop    chan struct{}
	done    chan struct{}
	started bool
}

// Open loads the file at path, migrating older payloads up to version.
// A missing file starts from initial. Migrators are keyed by the version
// they upgrade FROM.
func Open[T any](path string, version int, initial T, migrators map[int]Migrator) (*Store[T], error) {
	s := &Store[T]{
		path:      path,
		version:   version,
		migrators: migrators,
		data:      initial,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	payload := env.Data
	for from := env.Version; from < version; from++ {
		migrate, ok := migrators[from]
		if !ok {
			return nil, fmt.Errorf("%s: no migration from version %d", path, from)
		}
		payload, err = migrate(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: migrate from version %d: %w", path, from, err)
		}
		log.Printf("Store: migrated %s from version %d", filepath.Base(path), from)
	}
	if err := json.Unmarshal(payload, &s.data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	// Persist the upgraded payload on the next flush.
	s.dirty = env.Version != version
	return s, nil
}

// View runs fn with the current data under the lock. fn must not retain
// references past the call.
func (s *Store[T]) View(fn func(data *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// Update runs fn with the data under the lock and marks the store dirty.
func (s *Store[T]) Update(fn func(data *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
	s.dirty = true
}

// Flush writes the file if anything changed since the last flush. The
// write goes through a temp file and rename.
func (s *Store[T]) Flush() error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	payload, err := json.Marshal(s.data)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	s.dirty = false
	s.mu.Unlock()

	raw, err := json.MarshalIndent(envelope{Version: s.version, Data: payload}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", s.path, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Start launches the interval flush loop.
func (s *Store[T]) Start(interval time.Duration) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Flush(); err != nil {
					log.Printf("Store: flush %s: %v", filepath.Base(s.path), err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the flush loop and writes any pending state.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	select {
	case <-s.stop:
	default:
		close(s.stop)
		if started {
			<-s.done
		}
	}
	return s.Flush()
}
