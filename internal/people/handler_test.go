package people

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
)

// fakeStore keeps people per organization so tenant isolation is observable.
type fakeStore struct {
	people      map[uuid.UUID]map[uuid.UUID]*models.Person
	referenced  map[uuid.UUID]bool
	enrollments []*models.Enrollment
}

func newFakeStore() *fakeStore {
	return &fakeStore{people: map[uuid.UUID]map[uuid.UUID]*models.Person{}, referenced: map[uuid.UUID]bool{}}
}

func (f *fakeStore) List(_ context.Context, orgID uuid.UUID, _ models.PersonFilter) ([]*models.Person, error) {
	var out []*models.Person
	for _, p := range f.people[orgID] {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, orgID, id uuid.UUID) (*models.Person, error) {
	p, ok := f.people[orgID][id]
	if !ok {
		return nil, fmt.Errorf("person: %w", models.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) Create(_ context.Context, orgID uuid.UUID, p *models.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.OrganizationID = orgID
	if f.people[orgID] == nil {
		f.people[orgID] = map[uuid.UUID]*models.Person{}
	}
	f.people[orgID][p.ID] = p
	return nil
}

func (f *fakeStore) Update(_ context.Context, orgID uuid.UUID, p *models.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := f.people[orgID][p.ID]; !ok {
		return models.ErrNotFound
	}
	f.people[orgID][p.ID] = p
	return nil
}

func (f *fakeStore) Delete(_ context.Context, orgID, id uuid.UUID) error {
	if _, ok := f.people[orgID][id]; !ok {
		return models.ErrNotFound
	}
	if f.referenced[id] {
		return fmt.Errorf("person: %w", models.ErrConflict)
	}
	delete(f.people[orgID], id)
	return nil
}

func (f *fakeStore) EnrollmentsFor(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]*models.Enrollment, error) {
	return f.enrollments, nil
}

func (f *fakeStore) InterviewsFor(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]*models.Interview, error) {
	return nil, nil
}

type recordingInvalidator struct{ got []realtime.Mutation }

func (r *recordingInvalidator) Invalidate(_ context.Context, _ uuid.UUID, m realtime.Mutation) {
	r.got = append(r.got, m)
}

func newRouter(h *Handler, orgID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextOrganizationID, orgID) })
	r.GET("/people", h.List)
	r.GET("/people/:id", h.Get)
	r.POST("/people", h.Create)
	r.PUT("/people/:id", h.Update)
	r.DELETE("/people/:id", h.Delete)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestCreate_DefaultsAndBlankEmail(t *testing.T) {
	store := newFakeStore()
	inv := &recordingInvalidator{}
	orgID := uuid.New()
	r := newRouter(NewHandler(store, inv, nil), orgID)

	w := do(r, http.MethodPost, "/people", `{"name":"  Dana Levi ","email":"  ","tags":["alumni"]}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data models.Person `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Dana Levi", resp.Data.Name)
	assert.Nil(t, resp.Data.Email)
	assert.Equal(t, models.PersonActive, resp.Data.Status)
	assert.Equal(t, orgID, resp.Data.OrganizationID)
	require.Len(t, inv.got, 1)
	assert.Equal(t, realtime.OpCreated, inv.got[0].Op)
}

func TestCreate_InvalidStatus(t *testing.T) {
	r := newRouter(NewHandler(newFakeStore(), nil, nil), uuid.New())
	w := do(r, http.MethodPost, "/people", `{"name":"x","status":"deleted"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet_OtherTenantIsNotFound(t *testing.T) {
	store := newFakeStore()
	orgA, orgB := uuid.New(), uuid.New()
	p := &models.Person{Name: "Yossi"}
	require.NoError(t, store.Create(context.Background(), orgA, p))

	w := do(newRouter(NewHandler(store, nil, nil), orgB), http.MethodGet, "/people/"+p.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(newRouter(NewHandler(store, nil, nil), orgA), http.MethodGet, "/people/"+p.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestList_EnrichedWithoutEnrollment(t *testing.T) {
	store := newFakeStore()
	orgID := uuid.New()
	require.NoError(t, store.Create(context.Background(), orgID, &models.Person{Name: "Ruth"}))

	w := do(newRouter(NewHandler(store, nil, nil), orgID), http.MethodGet, "/people", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "enrollment_status")
	assert.Contains(t, w.Body.String(), "Ruth")
}

func TestDelete_InvalidatesDependentViews(t *testing.T) {
	store := newFakeStore()
	inv := &recordingInvalidator{}
	orgID := uuid.New()
	p := &models.Person{Name: "Tamar"}
	require.NoError(t, store.Create(context.Background(), orgID, p))

	w := do(newRouter(NewHandler(store, inv, nil), orgID), http.MethodDelete, "/people/"+p.ID.String(), "")

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, inv.got, 1)
	keys := realtime.KeysFor(inv.got[0])
	assert.Contains(t, keys, "people")
	assert.Contains(t, keys, "enrollments:person:"+p.ID.String())
	assert.Contains(t, keys, "dashboard:stats")
}

func TestDelete_ReferencedPersonConflicts(t *testing.T) {
	store := newFakeStore()
	inv := &recordingInvalidator{}
	orgID := uuid.New()
	p := &models.Person{Name: "Eli"}
	require.NoError(t, store.Create(context.Background(), orgID, p))
	store.referenced[p.ID] = true

	w := do(newRouter(NewHandler(store, inv, nil), orgID), http.MethodDelete, "/people/"+p.ID.String(), "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, inv.got)
}

func TestUpdate_Missing(t *testing.T) {
	r := newRouter(NewHandler(newFakeStore(), nil, nil), uuid.New())
	w := do(r, http.MethodPut, "/people/"+uuid.NewString(), `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
