package repository

import (
	"context"

	"templify/internal/model"
)

// DocumentRepository defines data access for rendered documents. Absent
// rows are reported as sql.ErrNoRows.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, d *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByOwner returns the documents owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error)

	// Update rewrites the mutable columns of an existing row.
	Update(ctx context.Context, d *model.Document) (*model.Document, error)

	// Delete removes a document by ID.
	Delete(ctx context.Context, id string) error
}
