package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles event registration persistence. Mutations run in a transaction
// that locks the event row so capacity and registration_count stay consistent.
type Repository struct {
	db database.TxBeginner
}

// NewRepository creates a registrations repository.
func NewRepository(db database.TxBeginner) *Repository {
	return &Repository{db: db}
}

const selectJoined = `SELECT r.id, r.organization_id, r.event_id, r.person_id, r.status, r.guests, r.checked_in_at,
	r.created_at, r.updated_at, p.name
	FROM event_registrations r
	INNER JOIN people p ON p.id = r.person_id`

const returning = ` RETURNING id, organization_id, event_id, person_id, status, guests, checked_in_at, created_at, updated_at`

func scanJoined(row pgx.Row) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	err := row.Scan(&reg.ID, &reg.OrganizationID, &reg.EventID, &reg.PersonID, &reg.Status, &reg.Guests, &reg.CheckedInAt,
		&reg.CreatedAt, &reg.UpdatedAt, &reg.PersonName)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func scanRow(row pgx.Row) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	err := row.Scan(&reg.ID, &reg.OrganizationID, &reg.EventID, &reg.PersonID, &reg.Status, &reg.Guests, &reg.CheckedInAt,
		&reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListByEvent returns an event's registrations in sign-up order.
func (r *Repository) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*models.EventRegistration, error) {
	rows, err := r.db.Query(ctx, selectJoined+` WHERE r.organization_id = $1 AND r.event_id = $2 ORDER BY r.created_at ASC`, orgID, eventID)
	if err != nil {
		return nil, database.MapError(err, "list registrations")
	}
	defer rows.Close()
	list := []*models.EventRegistration{}
	for rows.Next() {
		reg, err := scanJoined(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// lockEvent locks the event row for the rest of the transaction.
func lockEvent(ctx context.Context, tx pgx.Tx, orgID, eventID uuid.UUID) (*models.Event, error) {
	e := models.Event{ID: eventID, OrganizationID: orgID}
	err := tx.QueryRow(ctx, `SELECT capacity, status FROM events WHERE organization_id = $1 AND id = $2 FOR UPDATE`, orgID, eventID).
		Scan(&e.Capacity, &e.Status)
	if err != nil {
		return nil, database.MapError(err, "event")
	}
	return &e, nil
}

func seatsTaken(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status IN ('registered', 'attended', 'no_show')`, eventID).Scan(&n)
	return n, err
}

// recount stores the number of non-cancelled registrations on the event.
func recount(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE events
		SET registration_count = (SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status <> 'cancelled'),
			updated_at = NOW()
		WHERE id = $1`, eventID)
	return err
}

// Register signs a person up for an event. Once the seats are taken the registration is
// waitlisted. A cancelled registration for the same person is reopened; any other existing
// registration is a conflict.
func (r *Repository) Register(ctx context.Context, orgID, eventID, personID uuid.UUID, guests int) (*models.EventRegistration, error) {
	if guests < 0 {
		return nil, models.Invalid("guests", "must not be negative")
	}
	var reg *models.EventRegistration
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		event, err := lockEvent(ctx, tx, orgID, eventID)
		if err != nil {
			return err
		}
		if !Open(event.Status) {
			return models.Invalid("event", "is %s and not open for registration", event.Status)
		}
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM people WHERE organization_id = $1 AND id = $2`, orgID, personID).Scan(&exists); err != nil {
			return database.MapError(err, "person")
		}
		taken, err := seatsTaken(ctx, tx, eventID)
		if err != nil {
			return err
		}
		const q = `INSERT INTO event_registrations (organization_id, event_id, person_id, status, guests)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (event_id, person_id) DO UPDATE
				SET status = EXCLUDED.status, guests = EXCLUDED.guests, checked_in_at = NULL, updated_at = NOW()
				WHERE event_registrations.status = 'cancelled'` + returning
		reg, err = scanRow(tx.QueryRow(ctx, q, orgID, eventID, personID, Admission(event.Capacity, taken), guests))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("person already registered: %w", models.ErrConflict)
		}
		if err != nil {
			return database.MapError(err, "register")
		}
		return recount(ctx, tx, eventID)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Cancel cancels a registration. When it held a seat, the earliest waitlisted registration
// is promoted; the promoted registration (or nil) is returned alongside.
func (r *Repository) Cancel(ctx context.Context, orgID, eventID, id uuid.UUID) (cancelled, promoted *models.EventRegistration, err error) {
	err = database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		event, err := lockEvent(ctx, tx, orgID, eventID)
		if err != nil {
			return err
		}
		var prev models.RegistrationStatus
		err = tx.QueryRow(ctx, `SELECT status FROM event_registrations WHERE organization_id = $1 AND event_id = $2 AND id = $3`,
			orgID, eventID, id).Scan(&prev)
		if err != nil {
			return database.MapError(err, "registration")
		}
		cancelled, err = scanRow(tx.QueryRow(ctx, `UPDATE event_registrations SET status = 'cancelled', updated_at = NOW()
			WHERE organization_id = $1 AND event_id = $2 AND id = $3`+returning, orgID, eventID, id))
		if err != nil {
			return database.MapError(err, "registration")
		}
		if HoldsSeat(prev) && Open(event.Status) {
			taken, err := seatsTaken(ctx, tx, eventID)
			if err != nil {
				return err
			}
			if Admission(event.Capacity, taken) == models.RegistrationRegistered {
				promoted, err = scanRow(tx.QueryRow(ctx, `UPDATE event_registrations SET status = 'registered', updated_at = NOW()
					WHERE id = (SELECT id FROM event_registrations WHERE event_id = $1 AND status = 'waitlisted'
						ORDER BY created_at ASC LIMIT 1)`+returning, eventID))
				if errors.Is(err, pgx.ErrNoRows) {
					promoted = nil
				} else if err != nil {
					return err
				}
			}
		}
		return recount(ctx, tx, eventID)
	})
	if err != nil {
		return nil, nil, err
	}
	return cancelled, promoted, nil
}

// CheckIn marks a registration attended. Checking in twice keeps the first time.
func (r *Repository) CheckIn(ctx context.Context, orgID, eventID, id uuid.UUID, at time.Time) (*models.EventRegistration, error) {
	var reg *models.EventRegistration
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := lockEvent(ctx, tx, orgID, eventID); err != nil {
			return err
		}
		var prev models.RegistrationStatus
		err := tx.QueryRow(ctx, `SELECT status FROM event_registrations WHERE organization_id = $1 AND event_id = $2 AND id = $3`,
			orgID, eventID, id).Scan(&prev)
		if err != nil {
			return database.MapError(err, "registration")
		}
		if !CanCheckIn(prev) {
			return fmt.Errorf("check in %s registration: %w", prev, models.ErrInvalidTransition)
		}
		reg, err = scanRow(tx.QueryRow(ctx, `UPDATE event_registrations
			SET status = 'attended', checked_in_at = COALESCE(checked_in_at, $4), updated_at = NOW()
			WHERE organization_id = $1 AND event_id = $2 AND id = $3`+returning, orgID, eventID, id, at))
		if err != nil {
			return database.MapError(err, "registration")
		}
		return recount(ctx, tx, eventID)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}
