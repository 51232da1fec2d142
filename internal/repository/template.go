package repository

import (
	"context"

	"templify/internal/model"
)

// TemplateRepository defines data access for templates. Absent rows are
// reported as sql.ErrNoRows; callers map them to their own taxonomy.
type TemplateRepository interface {
	// Create inserts a new template record and returns the stored row.
	Create(ctx context.Context, t *model.Template) (*model.Template, error)

	// FindByID returns a template by its ID.
	FindByID(ctx context.Context, id string) (*model.Template, error)

	// ListVisible returns every system template plus the user templates
	// owned by ownerID, newest first.
	ListVisible(ctx context.Context, ownerID string) ([]model.Template, error)

	// Update rewrites the mutable columns of an existing row.
	Update(ctx context.Context, t *model.Template) (*model.Template, error)

	// Delete removes a template by ID.
	Delete(ctx context.Context, id string) error

	// CountByOwner counts the user templates owned by ownerID. This is the
	// ground truth the quota counter is reconciled against.
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
