package events

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

// Filter narrows event listings. From keeps events starting at or after it.
type Filter struct {
	Status models.EventStatus
	From   *time.Time
}

// Repository handles event persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an events repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, name, description, location, starts_at, ends_at, capacity,
	registration_count, target_audience, status, created_at, updated_at`

func scan(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.OrganizationID, &e.Name, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.Capacity,
		&e.RegistrationCount, &e.TargetAudience, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events matching f, soonest first.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f Filter) ([]*models.Event, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{orgID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("starts_at >= $%d", len(args)))
	}
	q := `SELECT ` + columns + ` FROM events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY starts_at ASC`
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.MapError(err, "list events")
	}
	defer rows.Close()
	list := []*models.Event{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Get returns an event by ID within the organization.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Event, error) {
	e, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM events WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "event")
	}
	return e, nil
}

// Create inserts an event. registration_count starts at zero.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, e *models.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO events (organization_id, name, description, location, starts_at, ends_at, capacity, target_audience, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, e.Name, e.Description, e.Location, e.StartsAt, e.EndsAt, e.Capacity, e.TargetAudience, e.Status))
	if err != nil {
		return database.MapError(err, "create event")
	}
	*e = *got
	return nil
}

// Update writes an event's editable fields. registration_count is maintained by registrations.
func (r *Repository) Update(ctx context.Context, orgID uuid.UUID, e *models.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	const q = `UPDATE events
		SET name = $3, description = $4, location = $5, starts_at = $6, ends_at = $7, capacity = $8,
			target_audience = $9, status = $10, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, e.ID, e.Name, e.Description, e.Location, e.StartsAt, e.EndsAt, e.Capacity,
		e.TargetAudience, e.Status))
	if err != nil {
		return database.MapError(err, "event")
	}
	*e = *got
	return nil
}

// Delete removes an event; its registrations go with it.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE organization_id = $1 AND id = $2`, orgID, id)
	return database.MustAffect(tag, err, "event")
}
