package service

// Package service contains the template and document lifecycle use cases.
// Authorization, quota, and validation checks always run before any storage
// mutation; storage writes always complete before the database write, and
// the two are not transactional (see Delete for the partial-failure rules).

import (
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"templify/internal/apperror"
	"templify/internal/model"
)

// DocxMimeType is the MIME type of the single supported template format.
const DocxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocxExtension is the single supported template file extension. An earlier
// revision also allowed legacy .doc through a MIME allow-list; .docx-only is
// the canonical policy and is applied uniformly.
const DocxExtension = ".docx"

var spacesRe = regexp.MustCompile(`\s+`)

// displayName normalizes an original filename into the stored display name.
func displayName(originalName string) string {
	return spacesRe.ReplaceAllString(strings.TrimSpace(originalName), "_")
}

// storedFileName derives a collision-resistant stored filename that keeps
// the display name readable, e.g. "4bf3…-offer_letter.docx".
func storedFileName(name string) string {
	return uuid.New().String() + "-" + name
}

// mimeFromExt maps a rendered filename's extension to a MIME type.
func mimeFromExt(ext string) string {
	if strings.EqualFold(ext, DocxExtension) {
		return DocxMimeType
	}
	return "application/octet-stream"
}

// checkDocxExtension enforces the .docx-only policy.
func checkDocxExtension(name string) error {
	if !strings.EqualFold(filepath.Ext(name), DocxExtension) {
		return apperror.New(apperror.KindUnsupportedFileType, "only .docx files are supported")
	}
	return nil
}

// DownloadResult is either a presigned URL (remote-backed files) or the
// bytes themselves (local-backed files, streamed by the HTTP layer).
type DownloadResult struct {
	URL      string
	Data     []byte
	MimeType string
}

// mapRepoError converts a repository failure into the caller taxonomy.
func mapRepoError(err error, notFoundMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(notFoundMsg)
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Internal("internal server error", err)
}

// sanitizeTemplate clears the fields that must not leave the service:
// internal file locator, backend routing, and owner identity.
func sanitizeTemplate(t *model.Template) *model.Template {
	out := *t
	out.FilePath = ""
	out.Backend = ""
	out.OwnerID = ""
	return &out
}

// sanitizeDocument clears the owner identity from the returned record.
func sanitizeDocument(d *model.Document) *model.Document {
	out := *d
	out.OwnerID = ""
	return &out
}
