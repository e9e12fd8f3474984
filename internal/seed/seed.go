package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/enrollments"
	"github.com/hkf/crm/internal/events"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/organizations"
	"github.com/hkf/crm/internal/people"
	"github.com/hkf/crm/internal/programs"
	"github.com/hkf/crm/pkg/database"
)

// Summary counts the rows a seed created.
type Summary struct {
	OrganizationID uuid.UUID
	Programs       int
	People         int
	Enrollments    int
	Events         int
}

// Apply inserts the fixture into orgID in one transaction. With orgID == uuid.Nil the
// fixture's organization section is used, reusing an organization with the same slug.
func Apply(ctx context.Context, db database.TxBeginner, orgID uuid.UUID, f *Fixture) (*Summary, error) {
	sum := &Summary{OrganizationID: orgID}
	err := database.WithTx(ctx, db, func(tx pgx.Tx) error {
		if sum.OrganizationID == uuid.Nil {
			if f.Organization == nil {
				return fmt.Errorf("no organization: pass --org or add an organization section")
			}
			orgs := organizations.NewRepository(tx)
			org, err := orgs.GetBySlug(ctx, f.Organization.Slug)
			switch {
			case errors.Is(err, models.ErrNotFound):
				org = &models.Organization{Name: f.Organization.Name, Slug: f.Organization.Slug}
				if err := orgs.Create(ctx, org); err != nil {
					return fmt.Errorf("create organization: %w", err)
				}
			case err != nil:
				return fmt.Errorf("look up organization: %w", err)
			}
			sum.OrganizationID = org.ID
		}
		org := sum.OrganizationID

		programIDs := make(map[string]uuid.UUID, len(f.Programs))
		programRepo := programs.NewRepository(tx)
		for _, p := range f.Programs {
			prog := &models.Program{
				Name:        p.Name,
				Description: p.Description,
				Type:        p.Type,
				IsActive:    true,
				Config: models.ProgramConfig{
					RequiresInterview: p.RequiresInterview,
					RequiresPayment:   p.RequiresPayment,
					PaymentAmount:     p.PaymentAmount,
					Currency:          p.Currency,
					MaxParticipants:   p.MaxParticipants,
				},
			}
			if err := programRepo.Create(ctx, org, prog); err != nil {
				return fmt.Errorf("program %q: %w", p.Name, err)
			}
			programIDs[p.Name] = prog.ID
			sum.Programs++
		}

		personIDs := make(map[string]uuid.UUID, len(f.People))
		peopleRepo := people.NewRepository(tx)
		for _, p := range f.People {
			person := &models.Person{
				Name:     p.Name,
				Status:   models.PersonStatus(p.Status),
				Tags:     p.Tags,
				Metadata: models.Metadata(p.Metadata),
			}
			if p.Email != "" {
				email := p.Email
				person.Email = &email
			}
			if p.Phone != "" {
				phone := p.Phone
				person.Phone = &phone
			}
			if err := peopleRepo.Create(ctx, org, person); err != nil {
				return fmt.Errorf("person %q: %w", p.Name, err)
			}
			if p.Email != "" {
				personIDs[strings.ToLower(p.Email)] = person.ID
			}
			sum.People++
		}

		enrollmentRepo := enrollments.NewRepository(tx)
		for _, e := range f.Enrollments {
			status := models.EnrollmentStatus(e.Status)
			if status == "" {
				status = models.EnrollmentApplied
			}
			data := models.Metadata(e.Data)
			if data == nil {
				data = models.Metadata{}
			}
			en := &models.Enrollment{
				PersonID:        personIDs[strings.ToLower(e.Person)],
				ProgramID:       programIDs[e.Program],
				Status:          status,
				ApplicationData: data,
			}
			if err := enrollmentRepo.Create(ctx, org, en); err != nil {
				return fmt.Errorf("enrollment %s/%s: %w", e.Person, e.Program, err)
			}
			sum.Enrollments++
		}

		eventRepo := events.NewRepository(tx)
		for _, e := range f.Events {
			ev := &models.Event{
				Name:     e.Name,
				Location: e.Location,
				StartsAt: e.StartsAt,
				Capacity: e.Capacity,
				Status:   models.EventStatus(e.Status),
			}
			if err := eventRepo.Create(ctx, org, ev); err != nil {
				return fmt.Errorf("event %q: %w", e.Name, err)
			}
			sum.Events++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// cleanupOrder lists tenant tables children first; ai_messages cascade from ai_conversations.
var cleanupOrder = []string{
	"documents",
	"ai_conversations",
	"escalations",
	"communications",
	"event_registrations",
	"events",
	"payments",
	"interviews",
	"enrollments",
	"cohorts",
	"programs",
	"people",
}

// Cleanup deletes every row of orgID except the organization and its members.
// It returns the number of rows removed per table.
func Cleanup(ctx context.Context, db database.TxBeginner, orgID uuid.UUID) (map[string]int64, error) {
	removed := make(map[string]int64, len(cleanupOrder))
	err := database.WithTx(ctx, db, func(tx pgx.Tx) error {
		for _, table := range cleanupOrder {
			tag, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE organization_id = $1`, orgID)
			if err != nil {
				return fmt.Errorf("cleanup %s: %w", table, err)
			}
			removed[table] = tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
