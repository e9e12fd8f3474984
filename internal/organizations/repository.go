package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles organization and organization_user persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an organizations repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// Create creates an organization.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	const q = `INSERT INTO organizations (id, name, slug)
		VALUES (gen_random_uuid(), $1, $2)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, org.Name, org.Slug).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	return database.MapError(err, "create organization")
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	err := r.db.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err, "organization")
	}
	return &org, nil
}

// GetBySlug returns an organization by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	const q = `SELECT id, name, slug, created_at, updated_at FROM organizations WHERE slug = $1`
	var org models.Organization
	err := r.db.QueryRow(ctx, q, slug).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err, "organization")
	}
	return &org, nil
}

// AddUser adds a user to an organization with a role, updating the role if already a member.
func (r *Repository) AddUser(ctx context.Context, orgID, userID uuid.UUID, email, role string) error {
	const q = `INSERT INTO organization_users (id, organization_id, user_id, email, role)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role, email = EXCLUDED.email, updated_at = NOW()`
	_, err := r.db.Exec(ctx, q, orgID, userID, email, role)
	return database.MapError(err, "add organization user")
}

// GetUserRole returns the user's role in the organization, or "" if not a member.
func (r *Repository) GetUserRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	const q = `SELECT role FROM organization_users WHERE organization_id = $1 AND user_id = $2`
	var role string
	err := r.db.QueryRow(ctx, q, orgID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", database.MapError(err, "organization role")
	}
	return role, nil
}

// ListOrganizationsForUser returns organizations the user is a member of.
func (r *Repository) ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	const q = `SELECT o.id, o.name, o.slug, o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN organization_users ou ON ou.organization_id = o.id
		WHERE ou.user_id = $1
		ORDER BY o.name`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, database.MapError(err, "list organizations")
	}
	defer rows.Close()
	list := []*models.Organization{}
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// ListMembers returns members of an organization, oldest first.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationUser, error) {
	const q = `SELECT id, organization_id, user_id, email, role, created_at, updated_at
		FROM organization_users
		WHERE organization_id = $1
		ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, q, orgID)
	if err != nil {
		return nil, database.MapError(err, "list members")
	}
	defer rows.Close()
	list := []models.OrganizationUser{}
	for rows.Next() {
		var m models.OrganizationUser
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Email, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
