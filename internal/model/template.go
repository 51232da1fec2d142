package model

import "time"

// StorageType tells who owns a template: the system (shared, admin-managed)
// or a single user. It never changes after creation.
type StorageType string

const (
	StorageSystem StorageType = "system"
	StorageUser   StorageType = "user"
)

// Valid reports whether s is one of the two known storage types.
func (s StorageType) Valid() bool {
	return s == StorageSystem || s == StorageUser
}

// BackendKind names the storage variant holding a record's bytes. It is
// persisted explicitly next to the file path so routing never depends on the
// shape of the path itself.
type BackendKind string

const (
	BackendLocal  BackendKind = "local"
	BackendRemote BackendKind = "remote"
)

// Template is a reusable document with named placeholders.
// FilePath, Backend, and OwnerID are internal and never serialized.
type Template struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	FilePath    string      `json:"-"`
	Backend     BackendKind `json:"-"`
	Variables   []string    `json:"variables"`
	StorageType StorageType `json:"storage_type"`
	OwnerID     string      `json:"-"`
	MimeType    string      `json:"mime_type"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TemplatePatch enumerates the template fields a caller may edit directly.
// File-driven fields (variables, mime type, path) change only through a new
// file upload.
type TemplatePatch struct {
	Name *string `json:"name"`
}

// Empty reports whether the patch changes nothing.
func (p TemplatePatch) Empty() bool {
	return p.Name == nil
}
