// Package storage keeps generated export artifacts so they can be downloaded
// again later, either on the local file system or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Storage types
const (
	TypeFileSystem = "filesystem"
	TypeS3         = "s3"
)

var (
	ErrInvalidKey = errors.New("invalid artifact key")
	ErrNotFound   = errors.New("artifact not found")
)

// StoredArtifact describes a saved artifact
type StoredArtifact struct {
	Key  string
	URL  string
	Size int64
}

// ArtifactStore saves and serves export artifacts
type ArtifactStore interface {
	// Save stores data under key, replacing any previous content
	Save(ctx context.Context, key string, data []byte, contentType string) (*StoredArtifact, error)
	// Open returns the artifact content; ErrNotFound when missing
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the artifact; deleting a missing artifact is not an error
	Delete(ctx context.Context, key string) error
	// URL returns a download URL for the artifact
	URL(ctx context.Context, key string) (string, error)
	// CleanupOlderThan removes artifacts older than age and reports how many
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// ArtifactKey builds a unique key {yyyy}/{mm}/{id}/{filename} so the
// original filename survives the download
func ArtifactKey(filename string, at time.Time) string {
	return fmt.Sprintf("%04d/%02d/%s/%s", at.Year(), at.Month(), uuid.New().String(), path.Base(filename))
}

// validateKey rejects empty, absolute and parent-relative keys
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, `\`) {
		return fmt.Errorf("%w: absolute path %q", ErrInvalidKey, key)
	}
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return fmt.Errorf("%w: %q escapes the store", ErrInvalidKey, key)
		}
	}
	return nil
}

// NewArtifactStore builds the store selected by cfg.Type
func NewArtifactStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (ArtifactStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "", TypeFileSystem:
		return NewFileSystemStore(cfg.BasePath, cfg.BaseURL, logger)
	case TypeS3:
		s, err := NewS3Store(&cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
}
