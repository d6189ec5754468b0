package internal

import (
	"os"
	"path/filepath"
)

// FileSystem is the file access the pipeline needs from its host
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

// OSFileSystem reads and writes the local disk
type OSFileSystem struct{}

// ReadFile reads path, wrapping failures in a StorageError
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}
	return data, nil
}

// WriteFile writes data to path, creating parent directories as needed
func (OSFileSystem) WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &StorageError{Path: path, Op: "write", Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}
