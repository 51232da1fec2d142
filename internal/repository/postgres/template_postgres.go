package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"templify/internal/model"
	"templify/internal/repository"
)

// TemplatePostgres is a PostgreSQL implementation of
// repository.TemplateRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type TemplatePostgres struct {
	db *sql.DB
}

// NewTemplatePostgres creates a new TemplatePostgres repository.
func NewTemplatePostgres(db *sql.DB) *TemplatePostgres {
	return &TemplatePostgres{db: db}
}

var _ repository.TemplateRepository = (*TemplatePostgres)(nil)

const templateColumns = `id, name, file_path, backend, variables, storage_type, owner_id, mime_type, created_at, updated_at`

// Create inserts a new template row and returns the stored record.
func (r *TemplatePostgres) Create(ctx context.Context, t *model.Template) (*model.Template, error) {
	const q = `
		INSERT INTO templates (id, name, file_path, backend, variables, storage_type, owner_id, mime_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING ` + templateColumns

	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return nil, fmt.Errorf("marshal variables: %w", err)
	}
	row := r.db.QueryRowContext(ctx, q,
		t.ID,
		t.Name,
		t.FilePath,
		string(t.Backend),
		vars,
		string(t.StorageType),
		nullString(t.OwnerID),
		t.MimeType,
	)
	return scanTemplate(row)
}

// FindByID fetches a single template by its ID.
func (r *TemplatePostgres) FindByID(ctx context.Context, id string) (*model.Template, error) {
	const q = `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	return scanTemplate(r.db.QueryRowContext(ctx, q, id))
}

// ListVisible returns system templates plus the user templates owned by
// ownerID, newest first.
func (r *TemplatePostgres) ListVisible(ctx context.Context, ownerID string) ([]model.Template, error) {
	const q = `
		SELECT ` + templateColumns + `
		FROM templates
		WHERE storage_type = 'system' OR (storage_type = 'user' AND owner_id = $1)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the mutable columns of an existing row.
func (r *TemplatePostgres) Update(ctx context.Context, t *model.Template) (*model.Template, error) {
	const q = `
		UPDATE templates
		SET name = $2, file_path = $3, backend = $4, variables = $5, mime_type = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + templateColumns

	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return nil, fmt.Errorf("marshal variables: %w", err)
	}
	row := r.db.QueryRowContext(ctx, q,
		t.ID,
		t.Name,
		t.FilePath,
		string(t.Backend),
		vars,
		t.MimeType,
	)
	return scanTemplate(row)
}

// Delete removes a template by ID. It does not return an error if the row
// does not exist.
func (r *TemplatePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM templates WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// CountByOwner counts the user templates owned by ownerID.
func (r *TemplatePostgres) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	const q = `SELECT COUNT(*) FROM templates WHERE storage_type = 'user' AND owner_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, ownerID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var (
		t       model.Template
		vars    []byte
		backend string
		sType   string
		owner   sql.NullString
	)
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.FilePath,
		&backend,
		&vars,
		&sType,
		&owner,
		&t.MimeType,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(vars, &t.Variables); err != nil {
		return nil, fmt.Errorf("unmarshal variables: %w", err)
	}
	t.Backend = model.BackendKind(backend)
	t.StorageType = model.StorageType(sType)
	t.OwnerID = owner.String
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
