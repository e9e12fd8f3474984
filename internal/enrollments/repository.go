package enrollments

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

// Repository handles enrollments persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an enrollments repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const selectJoined = `SELECT e.id, e.organization_id, e.person_id, e.program_id, e.cohort_id, e.status, e.application_data,
		e.decision_note, e.decided_at, e.applied_at, e.enrolled_at, e.completed_at, e.created_at, e.updated_at,
		p.name, pr.name
	FROM enrollments e
	INNER JOIN people p ON p.id = e.person_id
	INNER JOIN programs pr ON pr.id = e.program_id`

const returning = `RETURNING id, organization_id, person_id, program_id, cohort_id, status, application_data,
		decision_note, decided_at, applied_at, enrolled_at, completed_at, created_at, updated_at`

func scanJoined(row pgx.Row) (*models.Enrollment, error) {
	var e models.Enrollment
	err := row.Scan(&e.ID, &e.OrganizationID, &e.PersonID, &e.ProgramID, &e.CohortID, &e.Status, &e.ApplicationData,
		&e.DecisionNote, &e.DecidedAt, &e.AppliedAt, &e.EnrolledAt, &e.CompletedAt, &e.CreatedAt, &e.UpdatedAt,
		&e.PersonName, &e.ProgramName)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanRow(row pgx.Row) (*models.Enrollment, error) {
	var e models.Enrollment
	err := row.Scan(&e.ID, &e.OrganizationID, &e.PersonID, &e.ProgramID, &e.CohortID, &e.Status, &e.ApplicationData,
		&e.DecisionNote, &e.DecidedAt, &e.AppliedAt, &e.EnrolledAt, &e.CompletedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns enrollments matching f, most recently applied first.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f models.EnrollmentFilter) ([]*models.Enrollment, error) {
	where := []string{"e.organization_id = $1"}
	args := []interface{}{orgID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if f.ProgramID != nil {
		args = append(args, *f.ProgramID)
		where = append(where, fmt.Sprintf("e.program_id = $%d", len(args)))
	}
	if f.PersonID != nil {
		args = append(args, *f.PersonID)
		where = append(where, fmt.Sprintf("e.person_id = $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	q := selectJoined + ` WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY e.applied_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.MapError(err, "list enrollments")
	}
	defer rows.Close()
	list := []*models.Enrollment{}
	for rows.Next() {
		e, err := scanJoined(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Get returns an enrollment (with person and program names) within the organization.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Enrollment, error) {
	e, err := scanJoined(r.db.QueryRow(ctx, selectJoined+` WHERE e.organization_id = $1 AND e.id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "enrollment")
	}
	return e, nil
}

// Create inserts an application. Person, program and cohort must belong to the organization.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, e *models.Enrollment) error {
	const q = `INSERT INTO enrollments (organization_id, person_id, program_id, cohort_id, status, application_data)
		SELECT $1, p.id, pr.id, $4::uuid, $5::text, $6::jsonb
		FROM people p, programs pr
		WHERE p.organization_id = $1 AND p.id = $2 AND pr.organization_id = $1 AND pr.id = $3
		  AND ($4::uuid IS NULL OR EXISTS (SELECT 1 FROM cohorts c WHERE c.organization_id = $1 AND c.id = $4 AND c.program_id = pr.id))
		` + returning
	got, err := scanRow(r.db.QueryRow(ctx, q, orgID, e.PersonID, e.ProgramID, e.CohortID, e.Status, e.ApplicationData))
	if err != nil {
		return database.MapError(err, "person, program or cohort")
	}
	got.PersonName, got.ProgramName = e.PersonName, e.ProgramName
	*e = *got
	return nil
}

// UpdateStatus writes a status change, stamping enrolled_at/completed_at on those transitions.
func (r *Repository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.EnrollmentStatus) (*models.Enrollment, error) {
	const q = `UPDATE enrollments
		SET status = $3,
		    enrolled_at = CASE WHEN $3 = 'enrolled' THEN COALESCE(enrolled_at, NOW()) ELSE enrolled_at END,
		    completed_at = CASE WHEN $3 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE completed_at END,
		    updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		` + returning
	e, err := scanRow(r.db.QueryRow(ctx, q, orgID, id, status))
	if err != nil {
		return nil, database.MapError(err, "enrollment")
	}
	return e, nil
}

// RecordDecision writes the decision outcome, note and timestamp in one statement.
func (r *Repository) RecordDecision(ctx context.Context, orgID, id uuid.UUID, status models.EnrollmentStatus, note *string, at time.Time) (*models.Enrollment, error) {
	const q = `UPDATE enrollments
		SET status = $3, decision_note = $4, decided_at = $5, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		` + returning
	e, err := scanRow(r.db.QueryRow(ctx, q, orgID, id, status, note, at))
	if err != nil {
		return nil, database.MapError(err, "enrollment")
	}
	return e, nil
}
