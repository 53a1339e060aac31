package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"datapresso/pkg/logging"
)

// ErrNotFound is returned when a key does not exist in a bucket.
var ErrNotFound = errors.New("key not found")

// Store is a durable key/value store for opaque binary values.
// Values are stored as-is; the store never interprets them.
type Store interface {
	Save(bucket, key string, data []byte) error
	Load(bucket, key string) ([]byte, error)
	Delete(bucket, key string) error
	List(bucket string) ([]string, error)
}

// FileStore keeps one file per key under <root>/<bucket>/<key><ext>.
type FileStore struct {
	mu   sync.RWMutex
	root string
	ext  string
}

// DefaultExtension is the file extension used for stored blobs.
const DefaultExtension = ".cbor"

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir, ext: DefaultExtension}
}

// Root returns the directory the store writes into.
func (s *FileStore) Root() string {
	return s.root
}

// Save writes data for bucket/key, replacing any previous value.
// The write goes to a temporary file first and is renamed into place, so a
// crash never leaves a truncated value behind.
func (s *FileStore) Save(bucket, key string, data []byte) error {
	if err := validate(bucket, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	target := s.pathFor(bucket, key)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}

	logging.Debug("Store", "Saved %s/%s to %s", bucket, key, target)
	return nil
}

// Load returns the value stored for bucket/key, or ErrNotFound.
func (s *FileStore) Load(bucket, key string) ([]byte, error) {
	if err := validate(bucket, key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.pathFor(bucket, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// Delete removes bucket/key. Deleting a missing key returns ErrNotFound.
func (s *FileStore) Delete(bucket, key string) error {
	if err := validate(bucket, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(bucket, key)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	logging.Debug("Store", "Deleted %s/%s", bucket, key)
	return nil
}

// List returns the keys stored in bucket in lexical order.
// A bucket that was never written to is empty, not an error.
func (s *FileStore) List(bucket string) ([]string, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.root, bucket)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", bucket, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != s.ext {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, s.ext))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) pathFor(bucket, key string) string {
	return filepath.Join(s.root, bucket, sanitizeKey(key)+s.ext)
}

func validate(bucket, key string) error {
	if bucket == "" {
		return fmt.Errorf("bucket cannot be empty")
	}
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	return nil
}

// sanitizeKey replaces characters that are unsafe in file names.
// Keys produced by the registry are UUIDs and pass through unchanged.
func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", ".", "_", " ", "_",
	)
	sanitized := strings.Trim(replacer.Replace(key), "_")
	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
