package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/tagprogress/internal/apperr"
	"github.com/starford/tagprogress/internal/checksum"
	"github.com/starford/tagprogress/internal/models"
)

// FS implements Provider backed by a JSON file on the local file system.
type FS struct {
	path string
	mu   sync.Mutex // serializes read-modify-write in Save
}

// NewFS creates a provider for the state file at path. The parent directory
// is created if needed; the file itself may not exist yet.
func NewFS(path string) (*FS, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: state path is a directory: %s", abs)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	return &FS{path: abs}, nil
}

// Path returns the absolute state file path.
func (f *FS) Path() string {
	return f.path
}

// Load reads the state file.
func (f *FS) Load() (models.State, string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.EmptyState(), "", nil
	}
	if err != nil {
		return models.EmptyState(), "", fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	return decode(data), checksum.Sum(data), nil
}

// Save writes state with last-writer-wins semantics unless ifMatch is set.
func (f *FS) Save(state models.State, ifMatch string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ifMatch != "" {
		current, err := os.ReadFile(f.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("storage: read %s: %w", f.path, err)
		}
		if err != nil || checksum.Sum(current) != ifMatch {
			return "", apperr.ErrConflict
		}
	}

	if state.Presets == nil {
		state.Presets = map[string]models.Settings{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode state: %w", err)
	}
	if err := writeAtomic(f.path, data); err != nil {
		return "", err
	}
	return checksum.Sum(data), nil
}

func decode(data []byte) models.State {
	var st models.State
	if err := json.Unmarshal(data, &st); err != nil {
		return models.EmptyState()
	}
	if st.Presets == nil {
		st.Presets = map[string]models.Settings{}
	}
	return st
}

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tagprogress-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
