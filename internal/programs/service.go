package programs

import (
	"context"

	"github.com/google/uuid"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
)

// Store is the persistence the service needs; *Repository satisfies it.
type Store interface {
	List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*models.Program, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Program, error)
	Create(ctx context.Context, orgID uuid.UUID, p *models.Program) error
	Update(ctx context.Context, orgID uuid.UUID, p *models.Program) error
}

// Service maps editor forms onto program writes.
type Service struct {
	store Store
	inv   realtime.Invalidator
}

// NewService creates a programs service.
func NewService(store Store, inv realtime.Invalidator) *Service {
	if inv == nil {
		inv = realtime.Nop{}
	}
	return &Service{store: store, inv: inv}
}

// Save validates the form and updates the program when id is set, inserts otherwise.
func (s *Service) Save(ctx context.Context, orgID uuid.UUID, id *uuid.UUID, form Form) (*models.Program, error) {
	p, err := form.ToProgram()
	if err != nil {
		return nil, err
	}
	op := realtime.OpCreated
	if id != nil {
		p.ID = *id
		op = realtime.OpUpdated
		err = s.store.Update(ctx, orgID, p)
	} else {
		err = s.store.Create(ctx, orgID, p)
	}
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, orgID, realtime.Mutation{Entity: realtime.EntityProgram, Op: op, ID: p.ID})
	return p, nil
}
