package storage

// Package storage contains the file backend abstraction and both concrete
// variants: a local directory tree for system template files and an
// S3-compatible object store for per-user files. Callers address backends
// only through normalized relative paths.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"templify/internal/apperror"
	"templify/internal/model"
)

// Backend is the capability set shared by the local and remote variants.
// Every path passed in is normalized again before any I/O; Save returns the
// normalized path under which the bytes were stored.
type Backend interface {
	// Save persists data under path, creating intermediate directories or
	// namespaces as needed.
	Save(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Fetch reads the bytes stored under path. Fails with NotFound if absent.
	Fetch(ctx context.Context, path string) ([]byte, error)
	// Delete removes the bytes stored under path. Fails with NotFound if absent.
	Delete(ctx context.Context, path string) error
}

// Presigner is implemented by backends that can hand out time-limited read
// URLs without exposing credentials.
type Presigner interface {
	PresignGet(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// Router selects the backend variant for a persisted backend kind. The kind
// is stored on each record; path shape is never inspected for routing.
type Router struct {
	Local  Backend
	Remote Backend
}

// For returns the backend matching kind. Unknown kinds fall back to remote,
// which rejects paths it does not hold.
func (r Router) For(kind model.BackendKind) Backend {
	if kind == model.BackendLocal {
		return r.Local
	}
	return r.Remote
}

// NormalizePath converts backslashes to forward slashes, drops parent
// directory segments and empty segments (leading, trailing, and repeated
// slashes). Dots inside a filename are left alone; only a whole ".." segment
// is a traversal. It is the sole defense against path traversal into another
// namespace and must run before every backend call.
func NormalizePath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	segs := strings.Split(p, "/")
	kept := segs[:0]
	for _, s := range segs {
		if s == "" || s == ".." {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, "/")
}

// checkPath normalizes path and rejects empty input before any I/O.
func checkPath(path string) (string, error) {
	p := NormalizePath(path)
	if p == "" {
		return "", apperror.InvalidArgument("file path is required")
	}
	return p, nil
}

// UserTemplatePrefix is the remote namespace holding a user's template files.
func UserTemplatePrefix(ownerID string) string {
	return fmt.Sprintf("users/%s/templates", ownerID)
}

// UserDocumentPrefix is the remote namespace holding a user's rendered
// documents, optionally under a caller-supplied subfolder.
func UserDocumentPrefix(ownerID, folder string) string {
	p := fmt.Sprintf("users/%s/documents", ownerID)
	if folder != "" {
		p = p + "/" + folder
	}
	return NormalizePath(p)
}
