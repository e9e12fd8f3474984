package communications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles communications persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a communications repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, person_id, channel, direction, status, subject, body, sent_at, error_message, created_at, updated_at`

func scan(row pgx.Row) (*models.Communication, error) {
	var c models.Communication
	err := row.Scan(&c.ID, &c.OrganizationID, &c.PersonID, &c.Channel, &c.Direction, &c.Status,
		&c.Subject, &c.Body, &c.SentAt, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a communication. The person must belong to orgID.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, c *models.Communication) error {
	if err := c.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO communications (organization_id, person_id, channel, direction, status, subject, body, sent_at)
		SELECT $1, p.id, $3::text, $4::text, $5::text, $6::text, $7::text, $8::timestamptz FROM people p WHERE p.id = $2 AND p.organization_id = $1
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, c.PersonID, c.Channel, c.Direction, c.Status, c.Subject, c.Body, c.SentAt))
	if err != nil {
		return database.MapError(err, "person")
	}
	*c = *got
	return nil
}

// ListByPerson returns a person's communications, newest first.
func (r *Repository) ListByPerson(ctx context.Context, orgID, personID uuid.UUID, limit int) ([]*models.Communication, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT ` + columns + ` FROM communications
		WHERE organization_id = $1 AND person_id = $2
		ORDER BY created_at DESC
		LIMIT $3`
	rows, err := r.db.Query(ctx, q, orgID, personID, limit)
	if err != nil {
		return nil, database.MapError(err, "list communications")
	}
	defer rows.Close()
	list := []*models.Communication{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpdateStatus sets a communication's delivery status. sentAt is stored when non-nil,
// errMsg replaces the previous error message.
func (r *Repository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.CommunicationStatus, sentAt *time.Time, errMsg string) error {
	if !status.Valid() {
		return models.Invalid("status", "unknown status %q", status)
	}
	const q = `UPDATE communications
		SET status = $3, sent_at = COALESCE($4, sent_at), error_message = $5, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, q, orgID, id, status, sentAt, errMsg)
	return database.MustAffect(tag, err, "communication")
}
