package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adonovan/spaghetti/pkg/cache"
	"github.com/adonovan/spaghetti/pkg/dag"
)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store in baseDir. If baseDir is empty it
// defaults to $XDG_STATE_HOME/spaghetti/broken, or
// ~/.local/state/spaghetti/broken.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, storeErr(err, "create store dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

// DefaultDir returns the default file store directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "spaghetti", "broken"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "spaghetti", "broken"), nil
}

// Path returns the base directory for record files.
func (s *FileStore) Path() string { return s.baseDir }

// recordPath maps a key, which may contain any character, to a file name.
func (s *FileStore) recordPath(key string) string {
	return filepath.Join(s.baseDir, cache.Hash([]byte(key))+".json")
}

func (s *FileStore) Load(ctx context.Context, key string) ([]dag.EdgeKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storeErr(err, "read record")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, storeErr(err, "parse record %s", filepath.Base(s.recordPath(key)))
	}
	return rec.Broken, nil
}

func (s *FileStore) Save(ctx context.Context, key string, edges []dag.EdgeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.recordPath(key)
	if len(edges) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return storeErr(err, "remove record")
		}
		return nil
	}

	data, err := json.MarshalIndent(Record{Key: key, Broken: edges, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return storeErr(err, "marshal record")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return storeErr(err, "write record")
	}
	return storeErr(os.Rename(tmp, path), "write record")
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
