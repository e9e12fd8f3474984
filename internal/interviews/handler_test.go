package interviews

import (
	"context"
	"encoding/json"
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
	rows    map[uuid.UUID]*models.Interview
	filters []models.InterviewFilter
}

func (m *memStore) List(_ context.Context, orgID uuid.UUID, f models.InterviewFilter) ([]*models.Interview, error) {
	m.filters = append(m.filters, f)
	out := []*models.Interview{}
	for _, i := range m.rows {
		if i.OrganizationID == orgID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, orgID, id uuid.UUID) (*models.Interview, error) {
	i, ok := m.rows[id]
	if !ok || i.OrganizationID != orgID {
		return nil, models.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *memStore) Create(_ context.Context, orgID uuid.UUID, i *models.Interview) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.ID, i.OrganizationID = uuid.New(), orgID
	m.rows[i.ID] = i
	return nil
}

func (m *memStore) Update(_ context.Context, orgID uuid.UUID, i *models.Interview) error {
	if err := i.Validate(); err != nil {
		return err
	}
	cp := *i
	m.rows[i.ID] = &cp
	return nil
}

type recordingInvalidator struct{ got []realtime.Mutation }

func (r *recordingInvalidator) Invalidate(_ context.Context, _ uuid.UUID, m realtime.Mutation) {
	r.got = append(r.got, m)
}

func setup(orgID uuid.UUID, store *memStore, inv realtime.Invalidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextOrganizationID, orgID) })
	h := NewHandler(store, inv)
	r.GET("/interviews", h.List)
	r.GET("/interviews/:id", h.Get)
	r.POST("/interviews", h.Schedule)
	r.PATCH("/interviews/:id", h.Update)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestSchedule(t *testing.T) {
	orgID := uuid.New()
	store := &memStore{rows: map[uuid.UUID]*models.Interview{}}
	inv := &recordingInvalidator{}
	r := setup(orgID, store, inv)
	personID := uuid.New()

	body := `{"person_id":"` + personID.String() + `","program_id":"` + uuid.NewString() + `","scheduled_at":"2026-05-01T09:00:00Z","location":" Zoom "}`
	w := do(r, http.MethodPost, "/interviews", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data models.Interview `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.InterviewScheduled, resp.Data.Status)
	assert.Equal(t, 30, resp.Data.DurationMinutes)
	assert.Equal(t, "Zoom", resp.Data.Location)
	assert.Nil(t, resp.Data.Outcome)

	require.Len(t, inv.got, 1)
	assert.Equal(t, personID, inv.got[0].PersonID)
	assert.Contains(t, realtime.KeysFor(inv.got[0]), "dashboard:stats")

	w = do(r, http.MethodPost, "/interviews", `{"person_id":"`+personID.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_OutcomeAndNotes(t *testing.T) {
	orgID := uuid.New()
	passed := models.OutcomePassed
	existing := &models.Interview{
		ID: uuid.New(), OrganizationID: orgID, PersonID: uuid.New(), ProgramID: uuid.New(),
		ScheduledAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), DurationMinutes: 45,
		Status: models.InterviewScheduled, Outcome: &passed,
	}
	store := &memStore{rows: map[uuid.UUID]*models.Interview{existing.ID: existing}}
	r := setup(orgID, store, nil)
	path := "/interviews/" + existing.ID.String()

	w := do(r, http.MethodPatch, path, `{"status":"completed","interviewer_notes":{"strengths":"clear","score":8}}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := store.rows[existing.ID]
	assert.Equal(t, models.InterviewCompleted, got.Status)
	assert.Equal(t, 45, got.DurationMinutes)
	require.NotNil(t, got.Outcome)
	assert.Equal(t, models.OutcomePassed, *got.Outcome)
	assert.Equal(t, 8, *got.InterviewerNotes.Score)

	w = do(r, http.MethodPatch, path, `{"outcome":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, store.rows[existing.ID].Outcome)

	w = do(r, http.MethodPatch, path, `{"interviewer_notes":{"score":11}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, path, `{"status":"postponed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_OtherTenant(t *testing.T) {
	existing := &models.Interview{ID: uuid.New(), OrganizationID: uuid.New(), Status: models.InterviewScheduled}
	store := &memStore{rows: map[uuid.UUID]*models.Interview{existing.ID: existing}}
	inv := &recordingInvalidator{}
	r := setup(uuid.New(), store, inv)

	w := do(r, http.MethodPatch, "/interviews/"+existing.ID.String(), `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.InterviewScheduled, existing.Status)
	assert.Empty(t, inv.got)
}

func TestList_DateRange(t *testing.T) {
	store := &memStore{rows: map[uuid.UUID]*models.Interview{}}
	r := setup(uuid.New(), store, nil)

	w := do(r, http.MethodGet, "/interviews?status=scheduled&from=2026-05-01&to=2026-05-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.filters, 1)
	f := store.filters[0]
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *f.From)
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), *f.To)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/interviews?from=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/interviews?status=late", "").Code)
}
