package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store defines the persistence contract for the topic set.
// Abstracted for testability.
type Store interface {
	Load() (*TopicSet, error)
	Save(set *TopicSet) error
}

// FileStore implements Store as a single JSON file, written with
// write-temp-then-rename so a crash mid-write never leaves a torn file.
type FileStore struct {
	path string
}

// NewFileStore creates a filesystem-backed topic store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted topic set. Returns (nil, nil) when no file
// exists yet; the caller seeds from configured defaults.
func (fs *FileStore) Load() (*TopicSet, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading topic state: %w", err)
	}

	var set TopicSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing topic state %s: %w", fs.path, err)
	}
	return &set, nil
}

// Save writes the topic set atomically: marshal, write a temp file in
// the same directory, then rename over the target.
func (fs *FileStore) Save(set *TopicSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding topic state: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".topics-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing topic state: %w", err)
	}
	return nil
}
