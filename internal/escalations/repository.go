package escalations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles escalation persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an escalations repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, person_id, enrollment_id, interview_id, reason, urgency, status,
	assigned_to, assigned_at, resolved_at, resolution, created_at, updated_at`

// queueOrder puts unhandled work first, then the most urgent, then the oldest.
const queueOrder = ` ORDER BY
	CASE status WHEN 'open' THEN 0 WHEN 'in_progress' THEN 1 ELSE 2 END,
	CASE urgency WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
	created_at ASC`

func scan(row pgx.Row) (*models.Escalation, error) {
	var e models.Escalation
	err := row.Scan(&e.ID, &e.OrganizationID, &e.PersonID, &e.EnrollmentID, &e.InterviewID, &e.Reason, &e.Urgency, &e.Status,
		&e.AssignedTo, &e.AssignedAt, &e.ResolvedAt, &e.Resolution, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns escalations, open first by urgency. Closed ones are included only when includeClosed.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, includeClosed bool) ([]*models.Escalation, error) {
	q := `SELECT ` + columns + ` FROM escalations WHERE organization_id = $1`
	if !includeClosed {
		q += ` AND status IN ('open', 'in_progress')`
	}
	rows, err := r.db.Query(ctx, q+queueOrder, orgID)
	if err != nil {
		return nil, database.MapError(err, "list escalations")
	}
	defer rows.Close()
	list := []*models.Escalation{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Get returns an escalation by ID within the organization.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Escalation, error) {
	e, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM escalations WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "escalation")
	}
	return e, nil
}

// Create opens an escalation. Any referenced person, enrollment or interview must belong
// to the organization.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, e *models.Escalation) error {
	if err := e.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO escalations (organization_id, person_id, enrollment_id, interview_id, reason, urgency, status)
		SELECT $1, $2::uuid, $3::uuid, $4::uuid, $5::text, $6::text, $7::text
		WHERE ($2::uuid IS NULL OR EXISTS (SELECT 1 FROM people WHERE organization_id = $1 AND id = $2::uuid))
			AND ($3::uuid IS NULL OR EXISTS (SELECT 1 FROM enrollments WHERE organization_id = $1 AND id = $3::uuid))
			AND ($4::uuid IS NULL OR EXISTS (SELECT 1 FROM interviews WHERE organization_id = $1 AND id = $4::uuid))
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, e.PersonID, e.EnrollmentID, e.InterviewID, e.Reason, e.Urgency, e.Status))
	if err != nil {
		return database.MapError(err, "referenced record")
	}
	*e = *got
	return nil
}

// Update writes status, urgency, assignee and resolution. assigned_at follows assignee
// changes; resolved_at is set on closing and cleared on reopening.
func (r *Repository) Update(ctx context.Context, orgID uuid.UUID, e *models.Escalation, at time.Time) error {
	if err := e.Validate(); err != nil {
		return err
	}
	const q = `UPDATE escalations
		SET status = $3, urgency = $4, resolution = $6,
			assigned_at = CASE WHEN $5::uuid IS NULL THEN NULL
				WHEN assigned_to IS DISTINCT FROM $5::uuid THEN $7 ELSE assigned_at END,
			assigned_to = $5::uuid,
			resolved_at = CASE WHEN $3 IN ('resolved', 'dismissed') THEN COALESCE(resolved_at, $7) ELSE NULL END,
			updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, e.ID, e.Status, e.Urgency, e.AssignedTo, e.Resolution, at))
	if err != nil {
		return database.MapError(err, "escalation")
	}
	*e = *got
	return nil
}
