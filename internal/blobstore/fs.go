package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store persists uploaded documents and generated artifacts as opaque
// blobs addressed by key.
type Store interface {
	// Put writes the blob under key, creating parent directories as needed.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the whole blob.
	Get(ctx context.Context, key string) ([]byte, error)

	// Open returns a reader over the blob for streaming responses.
	// The caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
}

// FSStore is a filesystem-backed Store rooted at a base directory.
type FSStore struct {
	root   string
	logger *slog.Logger
}

// NewFSStore creates the root directory if it does not exist.
func NewFSStore(root string, logger *slog.Logger) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blobstore root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blobstore root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStore{root: root, logger: logger}, nil
}

func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	s.logger.Debug("Blob written",
		slog.String("key", key),
		slog.Int("size", len(data)),
	)
	return nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %q: %w", key, os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *FSStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %q: %w", key, os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve maps a key to an absolute path under the root, rejecting keys
// that would escape it.
func (s *FSStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("blob key is required")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key: %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// DocumentKey returns the storage key for an uploaded document.
func DocumentKey(documentID, fileName string) string {
	return "documents/" + documentID + "/" + filepath.Base(fileName)
}

// ArtifactKey returns the storage key for a generated artifact.
func ArtifactKey(jobID, kind, fileName string) string {
	return "jobs/" + jobID + "/" + kind + "/" + fileName
}
