package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to dir/name through a temp file in the same
// directory followed by fsync and rename. On failure nothing is left at the
// destination and the temp file is removed.
func WriteFileAtomic(dir, name string, data []byte, perm os.FileMode) (path string, err error) {
	if dir == "" {
		return "", ErrNoDirectory
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path = filepath.Join(dir, name)
	if err = os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	return path, nil
}
