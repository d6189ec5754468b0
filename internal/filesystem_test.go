package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/chat-convert/testutil"
)

func TestOSFileSystem_WriteCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.md")
	fs := OSFileSystem{}

	if err := fs.WriteFile(path, []byte("# hi\n")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "# hi\n" {
		t.Errorf("ReadFile() = %q", data)
	}
}

func TestOSFileSystem_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := OSFileSystem{}.ReadFile(filepath.Join(dir, "missing.json"))
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "read" {
		t.Fatalf("ReadFile() error = %v, want read StorageError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("StorageError should unwrap to os.ErrNotExist, got %v", err)
	}

	// a regular file where a directory is needed
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	err = OSFileSystem{}.WriteFile(filepath.Join(blocker, "out.md"), []byte("x"))
	if !errors.As(err, &storageErr) || storageErr.Op != "write" {
		t.Errorf("WriteFile() error = %v, want write StorageError", err)
	}
}

func TestMemFSSatisfiesFileSystem(t *testing.T) {
	var fs FileSystem = testutil.NewMemFS(map[string]string{"in.json": "{}"})
	if err := fs.WriteFile("out/in.md", []byte("# in")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := fs.ReadFile("missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want not exist", err)
	}
}
