package people

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles people persistence and the joins the enriched view needs.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a people repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, name, email, phone, status, tags, metadata, created_at, updated_at`

func scan(row pgx.Row) (*models.Person, error) {
	var p models.Person
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Email, &p.Phone, &p.Status, &p.Tags, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns people matching f, newest first.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f models.PersonFilter) ([]*models.Person, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{orgID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", n, n, n))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	q := `SELECT ` + columns + ` FROM people WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.MapError(err, "list people")
	}
	defer rows.Close()
	list := []*models.Person{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Get returns a person by ID within the organization.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Person, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM people WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "person")
	}
	return p, nil
}

// Create inserts a person.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, p *models.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO people (organization_id, name, email, phone, status, tags, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, p.Name, p.Email, p.Phone, p.Status, p.Tags, p.Metadata))
	if err != nil {
		return database.MapError(err, "create person")
	}
	*p = *got
	return nil
}

// Update replaces a person's editable fields.
func (r *Repository) Update(ctx context.Context, orgID uuid.UUID, p *models.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	const q = `UPDATE people
		SET name = $3, email = $4, phone = $5, status = $6, tags = $7, metadata = $8, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, p.ID, p.Name, p.Email, p.Phone, p.Status, p.Tags, p.Metadata))
	if err != nil {
		return database.MapError(err, "person")
	}
	*p = *got
	return nil
}

// Delete removes a person. Returns ErrConflict while enrollments, interviews or other rows reference them.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM people WHERE organization_id = $1 AND id = $2`, orgID, id)
	return database.MustAffect(tag, err, "person")
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// EnrollmentsFor returns enrollments (with program names) for the given people.
func (r *Repository) EnrollmentsFor(ctx context.Context, orgID uuid.UUID, personIDs []uuid.UUID) ([]*models.Enrollment, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT e.id, e.person_id, e.program_id, e.cohort_id, e.status, e.applied_at, e.created_at, pr.name
		FROM enrollments e
		INNER JOIN programs pr ON pr.id = e.program_id
		WHERE e.organization_id = $1 AND e.person_id = ANY($2::uuid[])`
	rows, err := r.db.Query(ctx, q, orgID, idStrings(personIDs))
	if err != nil {
		return nil, database.MapError(err, "person enrollments")
	}
	defer rows.Close()
	var list []*models.Enrollment
	for rows.Next() {
		e := models.Enrollment{OrganizationID: orgID}
		if err := rows.Scan(&e.ID, &e.PersonID, &e.ProgramID, &e.CohortID, &e.Status, &e.AppliedAt, &e.CreatedAt, &e.ProgramName); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// InterviewsFor returns interviews for the given people.
func (r *Repository) InterviewsFor(ctx context.Context, orgID uuid.UUID, personIDs []uuid.UUID) ([]*models.Interview, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT id, person_id, program_id, scheduled_at, status, outcome
		FROM interviews
		WHERE organization_id = $1 AND person_id = ANY($2::uuid[])`
	rows, err := r.db.Query(ctx, q, orgID, idStrings(personIDs))
	if err != nil {
		return nil, database.MapError(err, "person interviews")
	}
	defer rows.Close()
	var list []*models.Interview
	for rows.Next() {
		i := models.Interview{OrganizationID: orgID}
		if err := rows.Scan(&i.ID, &i.PersonID, &i.ProgramID, &i.ScheduledAt, &i.Status, &i.Outcome); err != nil {
			return nil, err
		}
		list = append(list, &i)
	}
	return list, rows.Err()
}
