package cohorts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles cohorts persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a cohorts repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, program_id, name, start_date, end_date, max_participants, status, created_at, updated_at`

func scan(row pgx.Row) (*models.Cohort, error) {
	var c models.Cohort
	err := row.Scan(&c.ID, &c.OrganizationID, &c.ProgramID, &c.Name, &c.StartDate, &c.EndDate, &c.MaxParticipants, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByProgram returns a program's cohorts, latest start first (undated last).
func (r *Repository) ListByProgram(ctx context.Context, orgID, programID uuid.UUID) ([]*models.Cohort, error) {
	q := `SELECT ` + columns + ` FROM cohorts
		WHERE organization_id = $1 AND program_id = $2
		ORDER BY start_date DESC NULLS LAST, created_at DESC`
	rows, err := r.db.Query(ctx, q, orgID, programID)
	if err != nil {
		return nil, database.MapError(err, "list cohorts")
	}
	defer rows.Close()
	list := []*models.Cohort{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Create inserts a cohort under a program of the same organization.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, c *models.Cohort) error {
	const q = `INSERT INTO cohorts (organization_id, program_id, name, start_date, end_date, max_participants, status)
		SELECT $1, p.id, $3::text, $4::date, $5::date, $6::int, $7::text FROM programs p WHERE p.organization_id = $1 AND p.id = $2
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, c.ProgramID, c.Name, c.StartDate, c.EndDate, c.MaxParticipants, c.Status))
	if err != nil {
		return database.MapError(err, "program")
	}
	*c = *got
	return nil
}

// Update replaces a cohort's fields, keyed by (organization, program, id).
// A cohort under a different program is reported as not found.
func (r *Repository) Update(ctx context.Context, orgID uuid.UUID, c *models.Cohort) error {
	const q = `UPDATE cohorts
		SET name = $3, start_date = $4, end_date = $5, max_participants = $6, status = $7, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND program_id = $8
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, c.ID, c.Name, c.StartDate, c.EndDate, c.MaxParticipants, c.Status, c.ProgramID))
	if err != nil {
		return database.MapError(err, "cohort")
	}
	*c = *got
	return nil
}
