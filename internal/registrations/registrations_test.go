package registrations

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
)

func intPtr(n int) *int { return &n }

func TestAdmission(t *testing.T) {
	assert.Equal(t, models.RegistrationRegistered, Admission(nil, 1000))
	assert.Equal(t, models.RegistrationRegistered, Admission(intPtr(2), 1))
	assert.Equal(t, models.RegistrationWaitlisted, Admission(intPtr(2), 2))
	assert.Equal(t, models.RegistrationWaitlisted, Admission(intPtr(0), 0))
}

func TestRules(t *testing.T) {
	assert.True(t, HoldsSeat(models.RegistrationAttended))
	assert.False(t, HoldsSeat(models.RegistrationWaitlisted))
	assert.False(t, HoldsSeat(models.RegistrationCancelled))
	assert.True(t, CanCheckIn(models.RegistrationRegistered))
	assert.False(t, CanCheckIn(models.RegistrationCancelled))
	assert.False(t, CanCheckIn(models.RegistrationWaitlisted))
	assert.True(t, Open(models.EventPublished))
	assert.False(t, Open(models.EventCancelled))
}

// memStore mirrors the repository's capacity rules over one event.
type memStore struct {
	orgID    uuid.UUID
	eventID  uuid.UUID
	capacity *int
	regs     []*models.EventRegistration
}

func (m *memStore) find(orgID, eventID, id uuid.UUID) (*models.EventRegistration, error) {
	if orgID != m.orgID || eventID != m.eventID {
		return nil, fmt.Errorf("event: %w", models.ErrNotFound)
	}
	for _, r := range m.regs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("registration: %w", models.ErrNotFound)
}

func (m *memStore) taken() int {
	n := 0
	for _, r := range m.regs {
		if HoldsSeat(r.Status) {
			n++
		}
	}
	return n
}

func (m *memStore) ListByEvent(_ context.Context, orgID, eventID uuid.UUID) ([]*models.EventRegistration, error) {
	if orgID != m.orgID || eventID != m.eventID {
		return []*models.EventRegistration{}, nil
	}
	return m.regs, nil
}

func (m *memStore) Register(_ context.Context, orgID, eventID, personID uuid.UUID, guests int) (*models.EventRegistration, error) {
	if orgID != m.orgID || eventID != m.eventID {
		return nil, fmt.Errorf("event: %w", models.ErrNotFound)
	}
	for _, r := range m.regs {
		if r.PersonID == personID {
			return nil, fmt.Errorf("person already registered: %w", models.ErrConflict)
		}
	}
	reg := &models.EventRegistration{ID: uuid.New(), OrganizationID: orgID, EventID: eventID, PersonID: personID,
		Guests: guests, Status: Admission(m.capacity, m.taken())}
	m.regs = append(m.regs, reg)
	return reg, nil
}

func (m *memStore) Cancel(_ context.Context, orgID, eventID, id uuid.UUID) (*models.EventRegistration, *models.EventRegistration, error) {
	reg, err := m.find(orgID, eventID, id)
	if err != nil {
		return nil, nil, err
	}
	held := HoldsSeat(reg.Status)
	reg.Status = models.RegistrationCancelled
	if !held || Admission(m.capacity, m.taken()) != models.RegistrationRegistered {
		return reg, nil, nil
	}
	for _, r := range m.regs {
		if r.Status == models.RegistrationWaitlisted {
			r.Status = models.RegistrationRegistered
			return reg, r, nil
		}
	}
	return reg, nil, nil
}

func (m *memStore) CheckIn(_ context.Context, orgID, eventID, id uuid.UUID, at time.Time) (*models.EventRegistration, error) {
	reg, err := m.find(orgID, eventID, id)
	if err != nil {
		return nil, err
	}
	if !CanCheckIn(reg.Status) {
		return nil, models.ErrInvalidTransition
	}
	reg.Status = models.RegistrationAttended
	if reg.CheckedInAt == nil {
		reg.CheckedInAt = &at
	}
	return reg, nil
}

type recordingInvalidator struct{ got []realtime.Mutation }

func (r *recordingInvalidator) Invalidate(_ context.Context, _ uuid.UUID, m realtime.Mutation) {
	r.got = append(r.got, m)
}

func setup(store *memStore, inv realtime.Invalidator, now time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextOrganizationID, store.orgID) })
	h := NewHandler(store, inv, nil)
	h.now = func() time.Time { return now }
	r.GET("/events/:id/registrations", h.List)
	r.POST("/events/:id/registrations", h.Register)
	r.POST("/events/:id/registrations/:registrationId/cancel", h.Cancel)
	r.POST("/events/:id/registrations/:registrationId/check-in", h.CheckIn)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

func TestRegister_WaitlistAndPromotion(t *testing.T) {
	store := &memStore{orgID: uuid.New(), eventID: uuid.New(), capacity: intPtr(1)}
	inv := &recordingInvalidator{}
	r := setup(store, inv, time.Now())
	base := "/events/" + store.eventID.String() + "/registrations"

	first, second := uuid.NewString(), uuid.NewString()
	require.Equal(t, http.StatusCreated, post(r, base, `{"person_id":"`+first+`"}`).Code)
	require.Equal(t, http.StatusCreated, post(r, base, `{"person_id":"`+second+`"}`).Code)
	assert.Equal(t, http.StatusConflict, post(r, base, `{"person_id":"`+first+`"}`).Code)

	require.Len(t, store.regs, 2)
	assert.Equal(t, models.RegistrationRegistered, store.regs[0].Status)
	assert.Equal(t, models.RegistrationWaitlisted, store.regs[1].Status)

	w := post(r, base+"/"+store.regs[0].ID.String()+"/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RegistrationCancelled, store.regs[0].Status)
	assert.Equal(t, models.RegistrationRegistered, store.regs[1].Status)

	require.Len(t, inv.got, 3)
	assert.Equal(t, store.eventID, inv.got[0].ParentID)
	assert.Contains(t, realtime.KeysFor(inv.got[0]), "event-registrations:"+store.eventID.String())
}

func TestCheckIn(t *testing.T) {
	store := &memStore{orgID: uuid.New(), eventID: uuid.New()}
	now := time.Date(2026, 6, 1, 18, 5, 0, 0, time.UTC)
	r := setup(store, nil, now)
	base := "/events/" + store.eventID.String() + "/registrations"

	require.Equal(t, http.StatusCreated, post(r, base, `{"person_id":"`+uuid.NewString()+`","guests":2}`).Code)
	reg := store.regs[0]
	assert.Equal(t, 2, reg.Guests)

	require.Equal(t, http.StatusOK, post(r, base+"/"+reg.ID.String()+"/check-in", "").Code)
	assert.Equal(t, models.RegistrationAttended, reg.Status)
	assert.Equal(t, now, *reg.CheckedInAt)

	require.Equal(t, http.StatusOK, post(r, base+"/"+reg.ID.String()+"/cancel", "").Code)
	assert.Equal(t, http.StatusConflict, post(r, base+"/"+reg.ID.String()+"/check-in", "").Code)
}

func TestOtherTenantEvent(t *testing.T) {
	store := &memStore{orgID: uuid.New(), eventID: uuid.New()}
	r := setup(store, nil, time.Now())

	w := post(r, "/events/"+uuid.NewString()+"/registrations", `{"person_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/events/nope/registrations", `{}`).Code)
}
