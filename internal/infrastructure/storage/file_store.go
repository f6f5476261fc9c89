package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"CrisisMonitor/internal/ports"
)

// FileStore keeps entries in memory and persists them as one JSON object.
// Values must be JSON documents. An empty path gives a memory-only store.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string][]byte
	pending map[string][]byte
	removed map[string]struct{}
}

var _ ports.KVStore = (*FileStore)(nil)

// OpenFileStore loads path if it exists. A corrupt file is logged and treated as empty.
func OpenFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		logger:  logger,
		entries: map[string][]byte{},
		pending: map[string][]byte{},
		removed: map[string]struct{}{},
	}
	if path == "" {
		return s, nil
	}

	loaded, err := s.readFile()
	if err != nil {
		return nil, err
	}
	s.entries = loaded
	return s, nil
}

// NewMemoryStore builds a store that never touches disk.
func NewMemoryStore() *FileStore {
	s, _ := OpenFileStore("", nil)
	return s
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(value), true, nil
}

func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = cloneBytes(value)
	s.pending[key] = cloneBytes(value)
	delete(s.removed, key)
	return nil
}

func (s *FileStore) Merge(_ context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		s.entries[key] = cloneBytes(value)
		s.pending[key] = cloneBytes(value)
		delete(s.removed, key)
	}
	return nil
}

// Delete drops keys; the next Flush removes them from the file as well.
func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
		delete(s.pending, key)
		s.removed[key] = struct{}{}
	}
	return nil
}

func (s *FileStore) Snapshot(_ context.Context) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.entries))
	for key, value := range s.entries {
		out[key] = cloneBytes(value)
	}
	return out, nil
}

// Flush re-reads the file, overlays pending writes and deletions and replaces
// the file atomically, so entries written by another process survive.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" || (len(s.pending) == 0 && len(s.removed) == 0) {
		return nil
	}

	current, err := s.readFile()
	if err != nil {
		return err
	}
	for key, value := range s.pending {
		current[key] = value
	}
	for key := range s.removed {
		delete(current, key)
	}

	doc := make(map[string]json.RawMessage, len(current))
	for key, value := range current {
		if !json.Valid(value) {
			s.warn("dropping non-json cache value", "key", key)
			continue
		}
		doc[key] = value
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode store %s: %w", s.path, err)
	}
	if err := writeFileAtomic(s.path, payload); err != nil {
		return err
	}

	for key, value := range current {
		if _, ok := s.entries[key]; !ok {
			s.entries[key] = value
		}
	}
	s.pending = map[string][]byte{}
	s.removed = map[string]struct{}{}
	return nil
}

func (s *FileStore) Close() error {
	return s.Flush(context.Background())
}

func (s *FileStore) readFile() (map[string][]byte, error) {
	out := map[string][]byte{}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return out, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.warn("store file is corrupt, starting empty", "path", s.path, "error", err)
		return out, nil
	}
	for key, value := range doc {
		out[key] = []byte(value)
	}
	return out, nil
}

func (s *FileStore) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// writeFileAtomic writes through a temp file in the target directory and renames it.
func writeFileAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
