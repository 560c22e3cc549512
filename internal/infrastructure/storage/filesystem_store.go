package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"go.uber.org/zap"
)

// FileSystemStore stores artifacts below a base directory
type FileSystemStore struct {
	basePath string
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewFileSystemStore creates the base directory if needed
func NewFileSystemStore(basePath, baseURL string, logger *zap.Logger) (*FileSystemStore, error) {
	if basePath == "" {
		basePath = "./data/exports"
	}
	if baseURL == "" {
		baseURL = "/api/v1/export/files"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileSystemStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// resolve maps key onto a path below basePath, refusing anything that escapes it
func (s *FileSystemStore) resolve(key string) (string, error) {
	if err := validateKey(key); err != nil {
		s.logger.Warn("blocked artifact key", zap.String("key", key))
		return "", err
	}
	full := filepath.Join(s.basePath, filepath.FromSlash(key))

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolve artifact path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked", zap.String("key", key), zap.String("path", absPath))
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return full, nil
}

// Save writes the artifact atomically
func (s *FileSystemStore) Save(ctx context.Context, key string, data []byte, _ string) (*StoredArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if _, err := export.WriteFileAtomic(filepath.Dir(full), filepath.Base(full), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store artifact: %w", err)
	}

	url, _ := s.URL(ctx, key)
	s.logger.Info("Artifact stored", zap.String("key", key), zap.Int("size", len(data)))
	return &StoredArtifact{Key: key, URL: url, Size: int64(len(data))}, nil
}

// Open opens the stored file
func (s *FileSystemStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// Delete removes the stored file
func (s *FileSystemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	s.logger.Info("Artifact deleted", zap.String("key", key))
	return nil
}

// URL joins the base URL and the key
func (s *FileSystemStore) URL(_ context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(filepath.Clean(key)), "/"), nil
}

// CleanupOlderThan removes files whose modification time is before now-age
func (s *FileSystemStore) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deleted := 0

	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(p); err == nil {
				deleted++
				s.logger.Debug("deleted old artifact", zap.String("path", p))
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, fmt.Errorf("cleanup walk failed: %w", err)
	}

	s.logger.Info("Artifact cleanup completed", zap.Int("deleted", deleted), zap.Duration("age", age))
	return deleted, nil
}

var _ ArtifactStore = (*FileSystemStore)(nil)
