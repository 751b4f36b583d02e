// Package draft persists local quote snapshots between saves. Each key maps
// to one JSON file; writes go through a debounced writer so rapid edits
// coalesce into a single write, last one wins.
package draft

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arkabuild/interioquote/internal/quote"
)

// Store is a file-backed snapshot store keyed by an opaque string (the
// session user, in practice).
type Store struct {
	dir string
}

// NewStore creates the snapshot directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create draft directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the snapshot for key, replacing any previous one.
func (s *Store) Save(key string, snap quote.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode draft snapshot: %w", err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write draft snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace draft snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for key. ok is false when no draft exists.
func (s *Store) Load(key string) (snap quote.Snapshot, ok bool, err error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return quote.Snapshot{}, false, nil
		}
		return quote.Snapshot{}, false, fmt.Errorf("read draft snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return quote.Snapshot{}, false, fmt.Errorf("decode draft snapshot: %w", err)
	}
	return snap, true, nil
}

// Clear removes the snapshot for key, typically after a successful save.
func (s *Store) Clear(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear draft snapshot: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(key))
	return filepath.Join(s.dir, name+".json")
}

// Writer debounces snapshot writes per key. A pending write is superseded
// by a later one; there is no queue. Failed writes are reported through
// onError and never affect in-memory state.
type Writer struct {
	store   *Store
	delay   time.Duration
	onError func(key string, err error)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWriter wraps a store with a debounce delay. onError may be nil.
func NewWriter(store *Store, delay time.Duration, onError func(key string, err error)) *Writer {
	if onError == nil {
		onError = func(string, error) {}
	}
	return &Writer{
		store:   store,
		delay:   delay,
		onError: onError,
		pending: make(map[string]*time.Timer),
	}
}

// Enqueue schedules a snapshot write for key, replacing any write already
// pending for that key.
func (w *Writer) Enqueue(key string, snap quote.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[key]; ok {
		t.Stop()
	}
	w.pending[key] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()

		if err := w.store.Save(key, snap); err != nil {
			w.onError(key, err)
		}
	})
}

// Cancel drops any pending write for key. Used when the draft is cleared.
func (w *Writer) Cancel(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[key]; ok {
		t.Stop()
		delete(w.pending, key)
	}
}
