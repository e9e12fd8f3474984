package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Filter narrows document listings.
type Filter struct {
	PersonID *uuid.UUID
	Status   models.DocumentStatus
}

// Repository handles document records. The bytes live in object storage.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a documents repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, person_id, title, kind, storage_path, status, error_message, created_by, created_at, updated_at`

func scan(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OrganizationID, &d.PersonID, &d.Title, &d.Kind, &d.StoragePath, &d.Status, &d.ErrorMessage,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns documents matching f, newest first.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f Filter) ([]*models.Document, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{orgID}
	if f.PersonID != nil {
		args = append(args, *f.PersonID)
		where = append(where, fmt.Sprintf("person_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM documents WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, database.MapError(err, "list documents")
	}
	defer rows.Close()
	list := []*models.Document{}
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// Get returns a document by ID within the organization.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Document, error) {
	d, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM documents WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "document")
	}
	return d, nil
}

// Create inserts a document record. d.ID may be preset so the storage path can embed it.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, d *models.Document) error {
	if strings.TrimSpace(d.Title) == "" {
		return models.Invalid("title", "is required")
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Kind == "" {
		d.Kind = "report"
	}
	if d.Status == "" {
		d.Status = models.DocumentPending
	}
	if !d.Status.Valid() {
		return models.Invalid("status", "unknown status %q", d.Status)
	}
	const q = `INSERT INTO documents (id, organization_id, person_id, title, kind, storage_path, status, created_by)
		SELECT $2::uuid, $1, $3::uuid, $4::text, $5::text, $6::text, $7::text, $8::uuid
		WHERE $3::uuid IS NULL OR EXISTS (SELECT 1 FROM people WHERE organization_id = $1 AND id = $3::uuid)
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, d.ID, d.PersonID, d.Title, d.Kind, d.StoragePath, d.Status, d.CreatedBy))
	if err != nil {
		return database.MapError(err, "person")
	}
	*d = *got
	return nil
}

// UpdateStatus records generation progress. errMsg is kept only for failed documents.
func (r *Repository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.DocumentStatus, errMsg string) (*models.Document, error) {
	if !status.Valid() {
		return nil, models.Invalid("status", "unknown status %q", status)
	}
	if status != models.DocumentFailed {
		errMsg = ""
	}
	const q = `UPDATE documents SET status = $3, error_message = $4, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	d, err := scan(r.db.QueryRow(ctx, q, orgID, id, status, errMsg))
	if err != nil {
		return nil, database.MapError(err, "document")
	}
	return d, nil
}

// Delete removes a document record.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE organization_id = $1 AND id = $2`, orgID, id)
	return database.MustAffect(tag, err, "document")
}

// AttachFile records the stored object for a document and marks it ready.
func (r *Repository) AttachFile(ctx context.Context, orgID, id uuid.UUID, key string) (*models.Document, error) {
	const q = `UPDATE documents SET storage_path = $3, status = 'ready', error_message = '', updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	d, err := scan(r.db.QueryRow(ctx, q, orgID, id, key))
	if err != nil {
		return nil, database.MapError(err, "document")
	}
	return d, nil
}
