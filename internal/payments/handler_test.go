package payments

import (
	"context"
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

type memStore struct {
	rows map[uuid.UUID]*models.Payment
}

func (m *memStore) List(_ context.Context, orgID uuid.UUID, f Filter) ([]*models.Payment, error) {
	out := []*models.Payment{}
	for _, p := range m.rows {
		if p.OrganizationID == orgID && (f.Status == "" || p.Status == f.Status) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, orgID uuid.UUID, p *models.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID, p.OrganizationID = uuid.New(), orgID
	m.rows[p.ID] = p
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, orgID, id uuid.UUID, status models.PaymentStatus, at time.Time) (*models.Payment, error) {
	if !status.Valid() {
		return nil, models.Invalid("status", "unknown status %q", status)
	}
	p, ok := m.rows[id]
	if !ok || p.OrganizationID != orgID {
		return nil, models.ErrNotFound
	}
	p.Status = status
	if status == models.PaymentCompleted && p.PaidAt == nil {
		p.PaidAt = &at
	}
	return p, nil
}

type recordingInvalidator struct{ got []realtime.Mutation }

func (r *recordingInvalidator) Invalidate(_ context.Context, _ uuid.UUID, m realtime.Mutation) {
	r.got = append(r.got, m)
}

var fixedNow = time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

func setup(orgID uuid.UUID, store *memStore, inv realtime.Invalidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextOrganizationID, orgID) })
	h := NewHandler(store, inv)
	h.now = func() time.Time { return fixedNow }
	r.GET("/payments", h.List)
	r.POST("/payments", h.Create)
	r.PATCH("/payments/:id/status", h.UpdateStatus)
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body)))
	return w
}

func TestCreate_Amounts(t *testing.T) {
	orgID := uuid.New()
	person := uuid.NewString()
	tests := []struct {
		name   string
		amount string
		code   int
		minor  int64
	}{
		{"number", `1500`, http.StatusCreated, 150000},
		{"decimal string", `"99.90"`, http.StatusCreated, 9990},
		{"three decimals", `"1.005"`, http.StatusBadRequest, 0},
		{"negative", `-5`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{rows: map[uuid.UUID]*models.Payment{}}
			r := setup(orgID, store, nil)
			w := post(r, `{"person_id":"`+person+`","amount":`+tt.amount+`,"currency":"ils"}`)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusCreated {
				assert.Empty(t, store.rows)
				return
			}
			for _, p := range store.rows {
				assert.Equal(t, tt.minor, p.Amount)
				assert.Equal(t, "ILS", p.Currency)
				assert.Equal(t, models.PaymentPending, p.Status)
				assert.Nil(t, p.PaidAt)
			}
		})
	}
}

func TestCreate_CompletedStampsPaidAt(t *testing.T) {
	store := &memStore{rows: map[uuid.UUID]*models.Payment{}}
	inv := &recordingInvalidator{}
	r := setup(uuid.New(), store, inv)

	w := post(r, `{"person_id":"`+uuid.NewString()+`","amount":250,"status":"completed"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	for _, p := range store.rows {
		require.NotNil(t, p.PaidAt)
		assert.Equal(t, fixedNow, *p.PaidAt)
	}
	require.Len(t, inv.got, 1)
	assert.Equal(t, realtime.EntityPayment, inv.got[0].Entity)
}

func TestUpdateStatus(t *testing.T) {
	orgID := uuid.New()
	p := &models.Payment{ID: uuid.New(), OrganizationID: orgID, PersonID: uuid.New(), Amount: 100, Currency: "ILS", Status: models.PaymentPending}
	store := &memStore{rows: map[uuid.UUID]*models.Payment{p.ID: p}}
	inv := &recordingInvalidator{}
	r := setup(orgID, store, inv)

	patch := func(status string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/payments/"+p.ID.String()+"/status", strings.NewReader(`{"status":"`+status+`"}`)))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, patch("completed"))
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, fixedNow, *p.PaidAt)
	assert.Equal(t, http.StatusOK, patch("refunded"))
	assert.Equal(t, fixedNow, *p.PaidAt)
	assert.Equal(t, http.StatusBadRequest, patch("chargeback"))
	assert.Len(t, inv.got, 2)
}
