package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes JSONL data to a local file, replacing the previous
// archive atomically.
type FileDestination struct {
	path string
}

// NewFileDestination creates a file destination at the given path. Parent
// directories are created on first write.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

// Write replaces the archive file with data. The write goes through a temp
// file and rename so a crash never leaves a half-written archive.
func (d *FileDestination) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}
