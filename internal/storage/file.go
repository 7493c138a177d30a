package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// File implements Provider backed by a single file on the local file system.
type File struct {
	path string // absolute path to the document
}

// NewFile creates a File provider for the given path. The parent directory
// is created if it does not exist.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	return &File{path: abs}, nil
}

// Path returns the absolute path of the backing file.
func (f *File) Path() string {
	return f.path
}

// Load reads the whole document.
func (f *File) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("storage: load %s: %w", f.path, err)
	}
	return data, nil
}

// Save atomically writes the document: tmp file → fsync → rename. A reader
// never observes a partially written document.
func (f *File) Save(data []byte) error {
	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, ".dagaz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
