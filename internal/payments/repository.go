package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Filter narrows payment listings.
type Filter struct {
	Status   models.PaymentStatus
	PersonID *uuid.UUID
}

// Repository handles payment persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a payments repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, person_id, program_id, enrollment_id, amount, currency, status,
	provider, external_id, paid_at, created_at, updated_at`

func scan(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.OrganizationID, &p.PersonID, &p.ProgramID, &p.EnrollmentID, &p.Amount, &p.Currency, &p.Status,
		&p.Provider, &p.ExternalID, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns payments matching f, newest first.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f Filter) ([]*models.Payment, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{orgID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.PersonID != nil {
		args = append(args, *f.PersonID)
		where = append(where, fmt.Sprintf("person_id = $%d", len(args)))
	}
	q := `SELECT ` + columns + ` FROM payments WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.MapError(err, "list payments")
	}
	defer rows.Close()
	list := []*models.Payment{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Create records a payment for a person of the organization.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, p *models.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO payments (organization_id, person_id, program_id, enrollment_id, amount, currency, status,
			provider, external_id, paid_at)
		SELECT organization_id, id, $3::uuid, $4::uuid, $5::bigint, $6::text, $7::text, $8::text, $9::text, $10::timestamptz
		FROM people WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, p.PersonID, p.ProgramID, p.EnrollmentID, p.Amount, p.Currency, p.Status,
		p.Provider, p.ExternalID, p.PaidAt))
	if err != nil {
		return database.MapError(err, "person")
	}
	*p = *got
	return nil
}

// UpdateStatus moves a payment to status. paid_at is stamped the first time it completes.
func (r *Repository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.PaymentStatus, at time.Time) (*models.Payment, error) {
	if !status.Valid() {
		return nil, models.Invalid("status", "unknown status %q", status)
	}
	const q = `UPDATE payments
		SET status = $3,
			paid_at = CASE WHEN $3 = 'completed' THEN COALESCE(paid_at, $4) ELSE paid_at END,
			updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	p, err := scan(r.db.QueryRow(ctx, q, orgID, id, status, at))
	if err != nil {
		return nil, database.MapError(err, "payment")
	}
	return p, nil
}
