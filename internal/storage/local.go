package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"templify/internal/apperror"
)

// localBackend implements Backend over a server-local directory tree. It
// holds system template files only; per-user files always live remotely.
type localBackend struct {
	root string
}

// NewLocal creates the local filesystem backend rooted at root. The root
// directory is created lazily on first Save.
func NewLocal(root string) (Backend, error) {
	if root == "" {
		return nil, errors.New("local storage root is required")
	}
	return &localBackend{root: root}, nil
}

// abs resolves a normalized relative path inside the root tree.
func (l *localBackend) abs(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Save writes the bytes under the normalized path, creating the directory
// tree if absent. contentType is not stored; the record keeps it.
func (l *localBackend) Save(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	p, err := checkPath(path)
	if err != nil {
		return "", err
	}
	full := l.abs(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", apperror.Internal("failed to save file to local storage", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", apperror.Internal("failed to save file to local storage", err)
	}
	return p, nil
}

// Fetch reads the bytes stored under path.
func (l *localBackend) Fetch(ctx context.Context, path string) ([]byte, error) {
	p, err := checkPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.abs(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NotFound("file not found")
		}
		return nil, apperror.Internal("failed to read file from local storage", err)
	}
	return data, nil
}

// Delete removes the file under path. Missing files are a NotFound failure,
// not a no-op.
func (l *localBackend) Delete(ctx context.Context, path string) error {
	p, err := checkPath(path)
	if err != nil {
		return err
	}
	full := l.abs(p)
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperror.NotFound("file not found")
		}
		return apperror.Internal("failed to delete file from local storage", err)
	}
	if err := os.Remove(full); err != nil {
		return apperror.Internal("failed to delete file from local storage", err)
	}
	return nil
}
