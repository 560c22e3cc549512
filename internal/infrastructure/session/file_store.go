package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the session in a JSON file readable only by its owner
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: file path is required")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file
func (s *FileStore) Path() string { return s.path }

// fileData is the on-disk shape: the user record is kept as raw JSON
// under its own key so either half can be read independently.
type fileData struct {
	Token string          `json:"auth_token,omitempty"`
	User  json.RawMessage `json:"auth_user,omitempty"`
}

// Load reads the session file. A missing file is an empty session.
func (s *FileStore) Load(_ context.Context) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Data{}, nil
	}
	if err != nil {
		return Data{}, fmt.Errorf("session: failed to read %s: %w", s.path, err)
	}

	var fd fileData
	if err := json.Unmarshal(raw, &fd); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	user, err := decodeUser(fd.User)
	if err != nil {
		return Data{}, err
	}
	return Data{Token: fd.Token, User: user}, nil
}

// Save writes the session atomically with mode 0600
func (s *FileStore) Save(_ context.Context, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userJSON, err := encodeUser(data.User)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(fileData{Token: data.Token, User: userJSON}, "", "  ")
	if err != nil {
		return fmt.Errorf("session: failed to encode: %w", err)
	}
	return writeFileAtomic(s.path, raw, 0o600)
}

// Clear deletes the session file
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: failed to remove %s: %w", s.path, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("session: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("session: failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("session: failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("session: failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("session: failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("session: failed to replace %s: %w", path, err)
	}
	return nil
}
