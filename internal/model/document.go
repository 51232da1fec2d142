package model

import "time"

// FileInfo describes the rendered file backing a document.
type FileInfo struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Document is a rendered instance of a Template with concrete values
// substituted. OwnerID is internal and never serialized.
type Document struct {
	ID         string         `json:"id"`
	TemplateID string         `json:"template_id"`
	OwnerID    string         `json:"-"`
	Values     map[string]any `json:"values"`
	File       *FileInfo      `json:"file,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DocumentPatch enumerates the document fields a caller may edit. A non-nil
// Values replaces the stored values wholesale and forces a re-render.
type DocumentPatch struct {
	Values map[string]any `json:"values"`
	Folder *string        `json:"folder"`
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.Values == nil && p.Folder == nil
}
