package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"templify/internal/model"
	"templify/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of
// repository.DocumentRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, template_id, owner_id, vals, file_path, file_size, file_mime, created_at, updated_at`

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, d *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, template_id, owner_id, vals, file_path, file_size, file_mime, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING ` + documentColumns

	values, err := json.Marshal(d.Values)
	if err != nil {
		return nil, fmt.Errorf("marshal values: %w", err)
	}
	path, size, mime := fileColumns(d.File)
	row := r.db.QueryRowContext(ctx, q,
		d.ID,
		d.TemplateID,
		d.OwnerID,
		values,
		path,
		size,
		mime,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListByOwner returns the documents owned by ownerID, newest first.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the mutable columns of an existing row.
func (r *DocumentPostgres) Update(ctx context.Context, d *model.Document) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET vals = $2, file_path = $3, file_size = $4, file_mime = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + documentColumns

	values, err := json.Marshal(d.Values)
	if err != nil {
		return nil, fmt.Errorf("marshal values: %w", err)
	}
	path, size, mime := fileColumns(d.File)
	row := r.db.QueryRowContext(ctx, q, d.ID, values, path, size, mime)
	return scanDocument(row)
}

// Delete removes a document by ID. It does not return an error if the row
// does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func fileColumns(f *model.FileInfo) (sql.NullString, sql.NullInt64, sql.NullString) {
	if f == nil {
		return sql.NullString{}, sql.NullInt64{}, sql.NullString{}
	}
	return sql.NullString{String: f.Path, Valid: true},
		sql.NullInt64{Int64: f.Size, Valid: true},
		sql.NullString{String: f.MimeType, Valid: true}
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d      model.Document
		values []byte
		path   sql.NullString
		size   sql.NullInt64
		mime   sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.TemplateID,
		&d.OwnerID,
		&values,
		&path,
		&size,
		&mime,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(values, &d.Values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	if path.Valid {
		d.File = &model.FileInfo{Path: path.String, Size: size.Int64, MimeType: mime.String}
	}
	return &d, nil
}
