// Package storage persists uploaded source images and generated outputs on
// the local filesystem, one subdirectory per batch.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore owns the data directory. Uploaded images live under
// uploads/<batchID>/ and generated artifacts under outputs/<batchID>/.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath, creating the
// uploads and outputs trees.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	for _, dir := range []string{basePath, filepath.Join(basePath, "uploads"), filepath.Join(basePath, "outputs")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: ensure %s: %w", dir, err)
		}
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// SaveUpload writes one uploaded source image for a batch and returns its
// path. The stored name is prefixed with the image's position so directory
// listings keep submission order; the client-provided name is reduced to its
// base to prevent traversal.
func (s *FileStore) SaveUpload(batchID string, index int, filename string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	safe := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if safe == "." || safe == string(filepath.Separator) || safe == "" {
		return "", fmt.Errorf("storage: invalid upload filename %q", filename)
	}
	dir := filepath.Join(s.basePath, "uploads", batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure upload directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%03d_%s", index, safe))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write upload: %w", err)
	}
	return path, nil
}

// WriteOutput persists one generated artifact for a job, lazily creating the
// batch's output directory. The file is fully written before the returned
// path exists anywhere else, so readers never observe a partial artifact.
func (s *FileStore) WriteOutput(batchID, jobID, extension string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	dir := filepath.Join(s.basePath, "outputs", batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure output directory: %w", err)
	}
	path := filepath.Join(dir, jobID+"."+extension)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write output: %w", err)
	}
	return path, nil
}
