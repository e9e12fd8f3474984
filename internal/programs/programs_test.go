package programs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
)

func TestForm_ToProgram(t *testing.T) {
	p, err := Form{Name: " Leadership ", MaxParticipants: "", PaymentAmount: ""}.ToProgram()
	require.NoError(t, err)
	assert.Equal(t, "Leadership", p.Name)
	assert.True(t, p.IsActive)
	assert.Nil(t, p.Config.MaxParticipants)
	assert.Nil(t, p.Config.PaymentAmount)
	assert.NotNil(t, p.Config.ApplicationFields)

	raw, err := json.Marshal(p.Config)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"maxParticipants":null`)
	assert.Contains(t, string(raw), `"paymentAmount":null`)
}

func TestForm_ToProgramPayment(t *testing.T) {
	p, err := Form{Name: "Paid", RequiresPayment: true, PaymentAmount: "1200.50", MaxParticipants: "30"}.ToProgram()
	require.NoError(t, err)
	assert.Equal(t, int64(120050), *p.Config.PaymentAmount)
	assert.Equal(t, "ILS", p.Config.Currency)
	assert.Equal(t, 30, *p.Config.MaxParticipants)
}

func TestForm_ToProgramRejects(t *testing.T) {
	inactive := false
	tests := []struct {
		name  string
		form  Form
		field string
	}{
		{"blank name", Form{Name: "  "}, "name"},
		{"non numeric max", Form{Name: "x", MaxParticipants: "lots"}, "max_participants"},
		{"payment without amount", Form{Name: "x", RequiresPayment: true}, "payment_amount"},
		{"bad currency", Form{Name: "x", PaymentAmount: "10", Currency: "SHEKEL"}, "currency"},
		{"duplicate field", Form{Name: "x", IsActive: &inactive, ApplicationFields: []models.ApplicationField{
			{ID: "why", Label: "Why?"}, {ID: "why", Label: "Why again?"},
		}}, "application_fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.ToProgram()
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

type fakeStore struct {
	created, updated []*models.Program
}

func (f *fakeStore) List(context.Context, uuid.UUID, bool) ([]*models.Program, error) { return nil, nil }
func (f *fakeStore) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Program, error) {
	return nil, models.ErrNotFound
}

func (f *fakeStore) Create(_ context.Context, orgID uuid.UUID, p *models.Program) error {
	p.ID = uuid.New()
	p.OrganizationID = orgID
	f.created = append(f.created, p)
	return nil
}

func (f *fakeStore) Update(_ context.Context, orgID uuid.UUID, p *models.Program) error {
	p.OrganizationID = orgID
	f.updated = append(f.updated, p)
	return nil
}

type recordingInvalidator struct{ got []realtime.Mutation }

func (r *recordingInvalidator) Invalidate(_ context.Context, _ uuid.UUID, m realtime.Mutation) {
	r.got = append(r.got, m)
}

func TestService_SaveCreatesOrUpdates(t *testing.T) {
	store := &fakeStore{}
	inv := &recordingInvalidator{}
	svc := NewService(store, inv)
	orgID := uuid.New()

	created, err := svc.Save(context.Background(), orgID, nil, Form{Name: "New"})
	require.NoError(t, err)
	assert.Len(t, store.created, 1)
	assert.Empty(t, store.updated)

	id := created.ID
	updated, err := svc.Save(context.Background(), orgID, &id, Form{Name: "Renamed"})
	require.NoError(t, err)
	require.Len(t, store.updated, 1)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "Renamed", updated.Name)

	require.Len(t, inv.got, 2)
	assert.Equal(t, realtime.OpCreated, inv.got[0].Op)
	assert.Equal(t, realtime.OpUpdated, inv.got[1].Op)
}

func TestService_SaveInvalidFormWritesNothing(t *testing.T) {
	store := &fakeStore{}
	inv := &recordingInvalidator{}
	_, err := NewService(store, inv).Save(context.Background(), uuid.New(), nil, Form{})
	assert.True(t, models.IsValidation(err))
	assert.Empty(t, store.created)
	assert.Empty(t, inv.got)
}
