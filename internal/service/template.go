package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"templify/internal/apperror"
	"templify/internal/docx"
	"templify/internal/model"
	"templify/internal/policy"
	"templify/internal/repository"
	"templify/internal/storage"
)

// UploadFile is an uploaded template payload.
type UploadFile struct {
	Data         []byte
	OriginalName string
	MimeType     string
}

// TemplateCreateInput describes an upload-and-extract template creation.
type TemplateCreateInput struct {
	File UploadFile
	// System requests a shared system template; admin only.
	System bool
}

// TemplatePathInput registers a system template from an existing local file.
type TemplatePathInput struct {
	Path string
	// Name overrides the display name; defaults to the path's base name.
	Name string
}

// TemplateService defines the template lifecycle use cases. Every operation
// takes the acting caller explicitly; checks run before any side effect.
type TemplateService interface {
	// CreateFromUpload validates, extracts variables, persists the bytes in
	// the backend matching the storage tier, and records the template.
	CreateFromUpload(ctx context.Context, in TemplateCreateInput, actor model.Actor) (*model.Template, error)

	// CreateFromPath registers a system template referencing an existing
	// local file. Admin only.
	CreateFromPath(ctx context.Context, in TemplatePathInput, actor model.Actor) (*model.Template, error)

	// Get returns a single readable template.
	Get(ctx context.Context, id string, actor model.Actor) (*model.Template, error)

	// List returns all system templates plus the caller's own templates.
	List(ctx context.Context, actor model.Actor) ([]model.Template, error)

	// GetVariables returns the stored variable list without re-extraction.
	GetVariables(ctx context.Context, id string, actor model.Actor) ([]string, error)

	// Update applies a typed patch and optionally replaces the stored file,
	// re-extracting variables from it.
	Update(ctx context.Context, id string, actor model.Actor, patch model.TemplatePatch, newFile *UploadFile) (*model.Template, error)

	// Delete removes the backing bytes and then the record.
	Delete(ctx context.Context, id string, actor model.Actor) error

	// Download returns a presigned URL for remote-backed templates or the
	// bytes themselves for local-backed ones.
	Download(ctx context.Context, id string, actor model.Actor) (*DownloadResult, error)
}

// templateService is a concrete implementation of TemplateService.
type templateService struct {
	templates      repository.TemplateRepository
	users          repository.UserRepository
	backends       storage.Router
	quota          int
	maxUploadBytes int64
	presignExpiry  time.Duration
}

// NewTemplateService constructs a new TemplateService.
func NewTemplateService(
	templates repository.TemplateRepository,
	users repository.UserRepository,
	backends storage.Router,
	quota int,
	maxUploadBytes int64,
	presignExpiry time.Duration,
) TemplateService {
	if quota <= 0 {
		quota = policy.DefaultTemplateQuota
	}
	return &templateService{
		templates:      templates,
		users:          users,
		backends:       backends,
		quota:          quota,
		maxUploadBytes: maxUploadBytes,
		presignExpiry:  presignExpiry,
	}
}

func (s *templateService) CreateFromUpload(ctx context.Context, in TemplateCreateInput, actor model.Actor) (*model.Template, error) {
	if len(in.File.Data) == 0 {
		return nil, apperror.BadRequest("file was not uploaded")
	}
	if err := checkDocxExtension(in.File.OriginalName); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && int64(len(in.File.Data)) > s.maxUploadBytes {
		return nil, apperror.New(apperror.KindFileTooLarge,
			fmt.Sprintf("file size must not exceed %d KiB", s.maxUploadBytes/1024))
	}
	if in.System && !policy.CanCreateSystemTemplate(actor) {
		return nil, apperror.AccessDenied()
	}
	if !in.System {
		if err := s.checkQuota(ctx, actor); err != nil {
			return nil, err
		}
	}

	// Extraction validates the payload before any bytes are persisted.
	variables, err := docx.ExtractVariables(in.File.Data, docx.DefaultDelimiters)
	if err != nil {
		return nil, err
	}

	name := displayName(in.File.OriginalName)
	fileName := storedFileName(name)

	tmpl := &model.Template{
		ID:          uuid.New().String(),
		Name:        name,
		Variables:   variables,
		MimeType:    DocxMimeType,
		StorageType: model.StorageUser,
		Backend:     model.BackendRemote,
		OwnerID:     actor.ID,
	}
	path := storage.UserTemplatePrefix(actor.ID) + "/" + fileName
	if in.System {
		tmpl.StorageType = model.StorageSystem
		tmpl.Backend = model.BackendLocal
		tmpl.OwnerID = ""
		path = fileName
	}

	stored, err := s.backends.For(tmpl.Backend).Save(ctx, path, in.File.Data, DocxMimeType)
	if err != nil {
		return nil, err
	}
	tmpl.FilePath = stored

	created, err := s.templates.Create(ctx, tmpl)
	if err != nil {
		// Rollback: remove the just-saved bytes so no orphan survives a DB failure.
		if delErr := s.backends.For(tmpl.Backend).Delete(ctx, stored); delErr != nil {
			return nil, apperror.Internal("failed to create template",
				fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr))
		}
		return nil, mapRepoError(err, "template not found")
	}

	if !in.System {
		if err := s.users.AdjustTemplateCount(ctx, actor.ID, 1); err != nil {
			return nil, apperror.Internal("failed to update template counter", err)
		}
	}
	return sanitizeTemplate(created), nil
}

// checkQuota reconciles the owner's counter against the actual owned count
// and rejects creation past the quota. Counter drift is corrected from the
// count, never the other way around.
func (s *templateService) checkQuota(ctx context.Context, actor model.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	counted, err := s.users.TemplateCount(ctx, actor.ID)
	if err != nil {
		return apperror.Internal("failed to read template counter", err)
	}
	actual, err := s.templates.CountByOwner(ctx, actor.ID)
	if err != nil {
		return mapRepoError(err, "template not found")
	}
	if counted != actual {
		if err := s.users.SetTemplateCount(ctx, actor.ID, actual); err != nil {
			return apperror.Internal("failed to reconcile template counter", err)
		}
	}
	if !policy.WithinTemplateQuota(actor, actual, s.quota) {
		return apperror.New(apperror.KindQuotaExceeded,
			fmt.Sprintf("template quota exceeded (maximum %d)", s.quota))
	}
	return nil
}

func (s *templateService) CreateFromPath(ctx context.Context, in TemplatePathInput, actor model.Actor) (*model.Template, error) {
	if !policy.CanCreateSystemTemplate(actor) {
		return nil, apperror.AccessDenied()
	}
	path := storage.NormalizePath(in.Path)
	if path == "" {
		return nil, apperror.InvalidArgument("file path is required")
	}
	if err := checkDocxExtension(path); err != nil {
		return nil, err
	}

	data, err := s.backends.Local.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	variables, err := docx.ExtractVariables(data, docx.DefaultDelimiters)
	if err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			name = path[idx+1:]
		}
	}

	created, err := s.templates.Create(ctx, &model.Template{
		ID:          uuid.New().String(),
		Name:        displayName(name),
		FilePath:    path,
		Backend:     model.BackendLocal,
		Variables:   variables,
		StorageType: model.StorageSystem,
		MimeType:    DocxMimeType,
	})
	if err != nil {
		return nil, mapRepoError(err, "template not found")
	}
	return sanitizeTemplate(created), nil
}

func (s *templateService) Get(ctx context.Context, id string, actor model.Actor) (*model.Template, error) {
	tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadTemplate(actor, tmpl) {
		return nil, apperror.AccessDenied()
	}
	return sanitizeTemplate(tmpl), nil
}

func (s *templateService) List(ctx context.Context, actor model.Actor) ([]model.Template, error) {
	items, err := s.templates.ListVisible(ctx, actor.ID)
	if err != nil {
		return nil, mapRepoError(err, "template not found")
	}
	out := make([]model.Template, 0, len(items))
	for i := range items {
		out = append(out, *sanitizeTemplate(&items[i]))
	}
	return out, nil
}

func (s *templateService) GetVariables(ctx context.Context, id string, actor model.Actor) ([]string, error) {
	tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadTemplate(actor, tmpl) {
		return nil, apperror.AccessDenied()
	}
	return tmpl.Variables, nil
}

func (s *templateService) Update(ctx context.Context, id string, actor model.Actor, patch model.TemplatePatch, newFile *UploadFile) (*model.Template, error) {
	if patch.Empty() && newFile == nil {
		return nil, apperror.InvalidArgument("no changes were provided")
	}
	tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteTemplate(actor, tmpl) {
		return nil, apperror.AccessDenied()
	}

	if newFile != nil {
		if err := checkDocxExtension(newFile.OriginalName); err != nil {
			return nil, err
		}
		if !actor.IsAdmin() && int64(len(newFile.Data)) > s.maxUploadBytes {
			return nil, apperror.New(apperror.KindFileTooLarge,
				fmt.Sprintf("file size must not exceed %d KiB", s.maxUploadBytes/1024))
		}
		variables, err := docx.ExtractVariables(newFile.Data, docx.DefaultDelimiters)
		if err != nil {
			return nil, err
		}

		backend := s.backends.For(tmpl.Backend)
		if err := backend.Delete(ctx, tmpl.FilePath); err != nil {
			return nil, err
		}

		name := displayName(newFile.OriginalName)
		fileName := storedFileName(name)
		path := fileName
		if tmpl.StorageType == model.StorageUser {
			path = storage.UserTemplatePrefix(tmpl.OwnerID) + "/" + fileName
		}
		stored, err := backend.Save(ctx, path, newFile.Data, DocxMimeType)
		if err != nil {
			return nil, err
		}
		tmpl.FilePath = stored
		tmpl.Variables = variables
		tmpl.Name = name
		tmpl.MimeType = DocxMimeType
	}

	if patch.Name != nil {
		tmpl.Name = displayName(*patch.Name)
	}

	updated, err := s.templates.Update(ctx, tmpl)
	if err != nil {
		return nil, mapRepoError(err, "template not found")
	}
	return sanitizeTemplate(updated), nil
}

func (s *templateService) Delete(ctx context.Context, id string, actor model.Actor) error {
	tmpl, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTemplate(actor, tmpl) {
		return apperror.AccessDenied()
	}

	// Bytes first: a failed byte delete keeps the record, a failed record
	// delete leaves an orphaned file, which is the accepted failure mode.
	if err := s.backends.For(tmpl.Backend).Delete(ctx, tmpl.FilePath); err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return mapRepoError(err, "template not found")
	}

	if tmpl.StorageType == model.StorageUser {
		if err := s.users.AdjustTemplateCount(ctx, tmpl.OwnerID, -1); err != nil {
			return apperror.Internal("failed to update template counter", err)
		}
	}
	return nil
}

func (s *templateService) Download(ctx context.Context, id string, actor model.Actor) (*DownloadResult, error) {
	tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadTemplate(actor, tmpl) {
		return nil, apperror.AccessDenied()
	}

	backend := s.backends.For(tmpl.Backend)
	if presigner, ok := backend.(storage.Presigner); ok {
		url, err := presigner.PresignGet(ctx, tmpl.FilePath, s.presignExpiry)
		if err != nil {
			return nil, err
		}
		return &DownloadResult{URL: url, MimeType: tmpl.MimeType}, nil
	}
	data, err := backend.Fetch(ctx, tmpl.FilePath)
	if err != nil {
		return nil, err
	}
	return &DownloadResult{Data: data, MimeType: tmpl.MimeType}, nil
}

func (s *templateService) load(ctx context.Context, id string) (*model.Template, error) {
	if id == "" {
		return nil, apperror.InvalidArgument("id is required")
	}
	tmpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "template not found")
	}
	return tmpl, nil
}
