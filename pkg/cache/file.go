package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// FileStore implements a file-based store for CLI and single-host usage.
// Each key is stored as a small JSON file in a directory tree derived from
// the key's hash.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// fileEntry keeps the original key next to the value so hash collisions
// are detected instead of returning another key's value.
type fileEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string { return s.dir }

// Get retrieves a value from the store.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Invalid entry - treat as miss
		_ = os.Remove(path)
		return "", false, nil
	}
	if entry.Key != key {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Put stores a value. The file is written to a temporary name and renamed
// into place so readers never observe a partial write.
func (s *FileStore) Put(ctx context.Context, key, value string) error {
	data, err := json.Marshal(fileEntry{Key: key, Value: value})
	if err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes a value from the store.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

// path converts a key to a file path.
// Uses a simple hash-based directory structure to avoid too many files in one dir.
func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	// Use first 2 chars as subdirectory for distribution
	subdir := hash[:2]
	filename := hash[2:] + ".json"
	return filepath.Join(s.dir, subdir, filename)
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
