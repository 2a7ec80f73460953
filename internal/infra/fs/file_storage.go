package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileExists reports whether path names an existing regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}

// WriteFileAtomic writes data next to path and renames it into place, so a reader
// never sees a half-written file. An existing file is replaced.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempFilePath := path + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFilePath, path); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
