package interviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles interview persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an interviews repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const selectJoined = `SELECT i.id, i.organization_id, i.person_id, i.program_id, i.enrollment_id, i.scheduled_at,
	i.duration_minutes, i.location, i.status, i.outcome, i.interviewer_notes, i.created_at, i.updated_at, p.name
	FROM interviews i
	INNER JOIN people p ON p.id = i.person_id`

func scan(row pgx.Row) (*models.Interview, error) {
	var i models.Interview
	err := row.Scan(&i.ID, &i.OrganizationID, &i.PersonID, &i.ProgramID, &i.EnrollmentID, &i.ScheduledAt,
		&i.DurationMinutes, &i.Location, &i.Status, &i.Outcome, &i.InterviewerNotes, &i.CreatedAt, &i.UpdatedAt, &i.PersonName)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// List returns interviews matching f ordered by scheduled time.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f models.InterviewFilter) ([]*models.Interview, error) {
	where := []string{"i.organization_id = $1"}
	args := []interface{}{orgID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("i.scheduled_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("i.scheduled_at < $%d", len(args)))
	}
	q := selectJoined + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY i.scheduled_at ASC`
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.MapError(err, "list interviews")
	}
	defer rows.Close()
	list := []*models.Interview{}
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, i)
	}
	return list, rows.Err()
}

// Get returns an interview by ID within the organization.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Interview, error) {
	i, err := scan(r.db.QueryRow(ctx, selectJoined+` WHERE i.organization_id = $1 AND i.id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "interview")
	}
	return i, nil
}

// Create schedules an interview. The person and program must belong to the organization.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, i *models.Interview) error {
	if err := i.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO interviews (organization_id, person_id, program_id, enrollment_id, scheduled_at,
			duration_minutes, location, status, outcome, interviewer_notes)
		SELECT p.organization_id, p.id, pr.id, $4::uuid, $5::timestamptz, $6::integer, $7::text, $8::text, $9::text, $10::jsonb
		FROM people p
		INNER JOIN programs pr ON pr.organization_id = p.organization_id AND pr.id = $3
		WHERE p.organization_id = $1 AND p.id = $2
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, orgID, i.PersonID, i.ProgramID, i.EnrollmentID, i.ScheduledAt,
		i.DurationMinutes, i.Location, i.Status, i.Outcome, i.InterviewerNotes).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return database.MapError(err, "person or program")
	}
	i.OrganizationID = orgID
	return nil
}

// Update writes the schedule, status, outcome and notes of an interview.
func (r *Repository) Update(ctx context.Context, orgID uuid.UUID, i *models.Interview) error {
	if err := i.Validate(); err != nil {
		return err
	}
	const q = `UPDATE interviews
		SET scheduled_at = $3, duration_minutes = $4, location = $5, status = $6, outcome = $7,
			interviewer_notes = $8, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING updated_at`
	err := r.db.QueryRow(ctx, q, orgID, i.ID, i.ScheduledAt, i.DurationMinutes, i.Location, i.Status, i.Outcome,
		i.InterviewerNotes).Scan(&i.UpdatedAt)
	if err != nil {
		return database.MapError(err, "interview")
	}
	return nil
}
