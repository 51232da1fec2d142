package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"templify/internal/apperror"
	"templify/internal/docx"
	"templify/internal/model"
	"templify/internal/policy"
	"templify/internal/repository"
	"templify/internal/storage"
)

// DocumentCreateInput describes a render-and-persist document creation.
type DocumentCreateInput struct {
	TemplateID string
	Values     map[string]any
	// Folder optionally nests the rendered file inside the owner's
	// document namespace.
	Folder string
}

// DocumentService defines the document lifecycle use cases. Documents are
// owner-private: no role grants access to another user's documents.
type DocumentService interface {
	// Create renders the referenced template with the submitted values,
	// persists the result in the actor's document namespace, and records it.
	Create(ctx context.Context, in DocumentCreateInput, actor model.Actor) (*model.Document, error)

	// Get returns a single document; owner only.
	Get(ctx context.Context, id string, actor model.Actor) (*model.Document, error)

	// ListByOwner returns the caller's documents, regardless of role.
	ListByOwner(ctx context.Context, actor model.Actor) ([]model.Document, error)

	// Update applies a typed patch; a new values map forces a re-render,
	// replacing the stored file.
	Update(ctx context.Context, id string, actor model.Actor, patch model.DocumentPatch) (*model.Document, error)

	// Delete removes the backing file and then the record.
	Delete(ctx context.Context, id string, actor model.Actor) error

	// DownloadURL returns a presigned read URL for the rendered file.
	DownloadURL(ctx context.Context, id string, actor model.Actor) (string, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	documents     repository.DocumentRepository
	templates     repository.TemplateRepository
	backends      storage.Router
	presignExpiry time.Duration
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	documents repository.DocumentRepository,
	templates repository.TemplateRepository,
	backends storage.Router,
	presignExpiry time.Duration,
) DocumentService {
	return &documentService{
		documents:     documents,
		templates:     templates,
		backends:      backends,
		presignExpiry: presignExpiry,
	}
}

func (s *documentService) Create(ctx context.Context, in DocumentCreateInput, actor model.Actor) (*model.Document, error) {
	if in.TemplateID == "" {
		return nil, apperror.InvalidArgument("template id is required")
	}
	tmpl, err := s.templates.FindByID(ctx, in.TemplateID)
	if err != nil {
		return nil, mapRepoError(err, "template not found")
	}
	// Rendering another user's private template is an explicit policy
	// decision: denied.
	if !policy.CanReadTemplate(actor, tmpl) {
		return nil, apperror.AccessDenied()
	}

	values := in.Values
	if values == nil {
		values = map[string]any{}
	}
	rendered, err := s.render(ctx, tmpl, values)
	if err != nil {
		return nil, err
	}

	fileName := storedFileName(tmpl.Name)
	path := storage.UserDocumentPrefix(actor.ID, in.Folder) + "/" + fileName
	mime := mimeFromExt(filepath.Ext(fileName))

	stored, err := s.backends.Remote.Save(ctx, path, rendered, mime)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:         uuid.New().String(),
		TemplateID: tmpl.ID,
		OwnerID:    actor.ID,
		Values:     values,
		File: &model.FileInfo{
			Path:     stored,
			Size:     int64(len(rendered)),
			MimeType: mime,
		},
	}
	created, err := s.documents.Create(ctx, doc)
	if err != nil {
		// Rollback: remove the just-saved bytes so no orphan survives a DB failure.
		if delErr := s.backends.Remote.Delete(ctx, stored); delErr != nil {
			return nil, apperror.Internal("failed to create document",
				fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr))
		}
		return nil, mapRepoError(err, "document not found")
	}
	return sanitizeDocument(created), nil
}

func (s *documentService) Get(ctx context.Context, id string, actor model.Actor) (*model.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadDocument(actor, doc) {
		return nil, apperror.AccessDenied()
	}
	return sanitizeDocument(doc), nil
}

func (s *documentService) ListByOwner(ctx context.Context, actor model.Actor) ([]model.Document, error) {
	items, err := s.documents.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, mapRepoError(err, "document not found")
	}
	out := make([]model.Document, 0, len(items))
	for i := range items {
		out = append(out, *sanitizeDocument(&items[i]))
	}
	return out, nil
}

func (s *documentService) Update(ctx context.Context, id string, actor model.Actor, patch model.DocumentPatch) (*model.Document, error) {
	if patch.Empty() {
		return nil, apperror.InvalidArgument("no changes were provided")
	}
	if patch.Folder != nil && patch.Values == nil {
		return nil, apperror.InvalidArgument("folder can only change together with values")
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteDocument(actor, doc) {
		return nil, apperror.AccessDenied()
	}

	if patch.Values != nil {
		tmpl, err := s.templates.FindByID(ctx, doc.TemplateID)
		if err != nil {
			return nil, mapRepoError(err, "template not found")
		}
		rendered, err := s.render(ctx, tmpl, patch.Values)
		if err != nil {
			return nil, err
		}

		if doc.File != nil {
			if err := s.backends.Remote.Delete(ctx, doc.File.Path); err != nil {
				return nil, err
			}
		}

		folder := ""
		if patch.Folder != nil {
			folder = *patch.Folder
		}
		fileName := storedFileName(tmpl.Name)
		path := storage.UserDocumentPrefix(doc.OwnerID, folder) + "/" + fileName
		mime := mimeFromExt(filepath.Ext(fileName))

		stored, err := s.backends.Remote.Save(ctx, path, rendered, mime)
		if err != nil {
			return nil, err
		}
		doc.Values = patch.Values
		doc.File = &model.FileInfo{Path: stored, Size: int64(len(rendered)), MimeType: mime}
	}

	updated, err := s.documents.Update(ctx, doc)
	if err != nil {
		return nil, mapRepoError(err, "document not found")
	}
	return sanitizeDocument(updated), nil
}

func (s *documentService) Delete(ctx context.Context, id string, actor model.Actor) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteDocument(actor, doc) {
		return apperror.AccessDenied()
	}

	// Bytes first; a failed byte delete keeps the record.
	if doc.File != nil {
		if err := s.backends.Remote.Delete(ctx, doc.File.Path); err != nil {
			return err
		}
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return mapRepoError(err, "document not found")
	}
	return nil
}

func (s *documentService) DownloadURL(ctx context.Context, id string, actor model.Actor) (string, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if !policy.CanReadDocument(actor, doc) {
		return "", apperror.AccessDenied()
	}
	if doc.File == nil {
		return "", apperror.NotFound("document file not found")
	}
	presigner, ok := s.backends.Remote.(storage.Presigner)
	if !ok {
		return "", apperror.Internal("storage backend cannot presign URLs", nil)
	}
	return presigner.PresignGet(ctx, doc.File.Path, s.presignExpiry)
}

// render fetches the template bytes from its backend and substitutes values.
func (s *documentService) render(ctx context.Context, tmpl *model.Template, values map[string]any) ([]byte, error) {
	data, err := s.backends.For(tmpl.Backend).Fetch(ctx, tmpl.FilePath)
	if err != nil {
		return nil, err
	}
	return docx.Render(data, values, docx.DefaultDelimiters)
}

func (s *documentService) load(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, apperror.InvalidArgument("id is required")
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "document not found")
	}
	return doc, nil
}
