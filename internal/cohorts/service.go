package cohorts

import (
	"context"

	"github.com/google/uuid"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
)

// Store is the persistence the service needs; *Repository satisfies it.
type Store interface {
	ListByProgram(ctx context.Context, orgID, programID uuid.UUID) ([]*models.Cohort, error)
	Create(ctx context.Context, orgID uuid.UUID, c *models.Cohort) error
	Update(ctx context.Context, orgID uuid.UUID, c *models.Cohort) error
}

// Service maps editor forms onto cohort writes.
type Service struct {
	store Store
	inv   realtime.Invalidator
}

// NewService creates a cohorts service.
func NewService(store Store, inv realtime.Invalidator) *Service {
	if inv == nil {
		inv = realtime.Nop{}
	}
	return &Service{store: store, inv: inv}
}

// Save validates the form and updates the cohort when id is set, inserts otherwise.
func (s *Service) Save(ctx context.Context, orgID uuid.UUID, id *uuid.UUID, form Form) (*models.Cohort, error) {
	c, err := form.ToCohort()
	if err != nil {
		return nil, err
	}
	op := realtime.OpCreated
	if id != nil {
		c.ID = *id
		op = realtime.OpUpdated
		err = s.store.Update(ctx, orgID, c)
	} else {
		err = s.store.Create(ctx, orgID, c)
	}
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, orgID, realtime.Mutation{Entity: realtime.EntityCohort, Op: op, ID: c.ID, ParentID: c.ProgramID})
	return c, nil
}
