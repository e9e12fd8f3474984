package programs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles programs persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a programs repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, name, description, type, config, is_active, created_at, updated_at`

func scan(row pgx.Row) (*models.Program, error) {
	var p models.Program
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.Type, &p.Config, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the organization's programs, active first, then by name.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*models.Program, error) {
	q := `SELECT ` + columns + ` FROM programs WHERE organization_id = $1 AND (NOT $2 OR is_active)
		ORDER BY is_active DESC, name ASC`
	rows, err := r.db.Query(ctx, q, orgID, activeOnly)
	if err != nil {
		return nil, database.MapError(err, "list programs")
	}
	defer rows.Close()
	list := []*models.Program{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Get returns a program by ID within the organization.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Program, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM programs WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "program")
	}
	return p, nil
}

// Create inserts a program.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, p *models.Program) error {
	const q = `INSERT INTO programs (organization_id, name, description, type, config, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, p.Name, p.Description, p.Type, p.Config, p.IsActive))
	if err != nil {
		return database.MapError(err, "create program")
	}
	*p = *got
	return nil
}

// Update replaces a program's fields, keyed by (organization, id).
func (r *Repository) Update(ctx context.Context, orgID uuid.UUID, p *models.Program) error {
	const q = `UPDATE programs
		SET name = $3, description = $4, type = $5, config = $6, is_active = $7, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, p.ID, p.Name, p.Description, p.Type, p.Config, p.IsActive))
	if err != nil {
		return database.MapError(err, "program")
	}
	*p = *got
	return nil
}
