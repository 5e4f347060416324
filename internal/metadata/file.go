package metadata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps each value in its own file at
// <root>/machines/<machine>/aws/<key>.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

func (s *FileStore) path(machine, key string) string {
	return filepath.Join(s.root, "machines", machine, "aws", key)
}

// Get reads a value.
func (s *FileStore) Get(_ context.Context, machine, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(machine, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for %s: %w", key, machine, err)
	}
	return data, nil
}

// Put writes a value through a temporary file and rename, so readers never
// observe a partial write.
func (s *FileStore) Put(_ context.Context, machine, key string, value []byte) error {
	p := s.path(machine, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), "."+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s for %s: %w", key, machine, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s for %s: %w", key, machine, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to write %s for %s: %w", key, machine, err)
	}
	return nil
}

// Delete removes a value.
func (s *FileStore) Delete(_ context.Context, machine, key string) error {
	err := os.Remove(s.path(machine, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s for %s: %w", key, machine, err)
	}
	return nil
}
