package organizations

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
)

type memStore struct {
	orgs    map[uuid.UUID]*models.Organization
	members map[uuid.UUID][]models.OrganizationUser
}

func newMemStore() *memStore {
	return &memStore{orgs: map[uuid.UUID]*models.Organization{}, members: map[uuid.UUID][]models.OrganizationUser{}}
}

func (m *memStore) Create(_ context.Context, org *models.Organization) error {
	for _, o := range m.orgs {
		if o.Slug == org.Slug {
			return models.ErrConflict
		}
	}
	org.ID = uuid.New()
	org.CreatedAt, org.UpdatedAt = time.Now(), time.Now()
	m.orgs[org.ID] = org
	return nil
}

func (m *memStore) AddUser(_ context.Context, orgID, userID uuid.UUID, email, role string) error {
	list := m.members[orgID]
	for i := range list {
		if list[i].UserID == userID {
			list[i].Role, list[i].Email = role, email
			return nil
		}
	}
	m.members[orgID] = append(list, models.OrganizationUser{ID: uuid.New(), OrganizationID: orgID, UserID: userID, Email: email, Role: role})
	return nil
}

func (m *memStore) ListOrganizationsForUser(_ context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	out := []*models.Organization{}
	for orgID, list := range m.members {
		for _, u := range list {
			if u.UserID == userID {
				out = append(out, m.orgs[orgID])
			}
		}
	}
	return out, nil
}

func (m *memStore) ListMembers(_ context.Context, orgID uuid.UUID) ([]models.OrganizationUser, error) {
	return append([]models.OrganizationUser{}, m.members[orgID]...), nil
}

func newRouter(store Store, userID, orgID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserEmail, "owner@example.com")
		if orgID != uuid.Nil {
			c.Set(middleware.ContextOrganizationID, orgID)
		}
	})
	r.GET("/organizations", h.ListMyOrganizations)
	r.POST("/organizations", h.CreateOrganization)
	r.GET("/organization/members", h.ListMembers)
	r.POST("/organization/members", h.AddMember)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrganization_MakesCallerOwner(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()
	r := newRouter(store, userID, uuid.Nil)

	w := do(r, http.MethodPost, "/organizations", `{"name":" HKF Haifa ","slug":"HKF-Haifa"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Data models.Organization `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "HKF Haifa", body.Data.Name)
	assert.Equal(t, "hkf-haifa", body.Data.Slug)

	members := store.members[body.Data.ID]
	require.Len(t, members, 1)
	assert.Equal(t, userID, members[0].UserID)
	assert.Equal(t, models.OrgRoleOwner, members[0].Role)

	w = do(r, http.MethodGet, "/organizations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hkf-haifa")
}

func TestCreateOrganization_Validation(t *testing.T) {
	r := newRouter(newMemStore(), uuid.New(), uuid.Nil)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/organizations", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/organizations", `{"name":"x","slug":"has space"}`).Code)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/organizations", `{"name":"A","slug":"taken"}`).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/organizations", `{"name":"B","slug":"taken"}`).Code)
}

func TestMembers_ScopedToTenant(t *testing.T) {
	store := newMemStore()
	orgID, other := uuid.New(), uuid.New()
	require.NoError(t, store.AddUser(context.Background(), other, uuid.New(), "x@other.org", models.OrgRoleOwner))
	r := newRouter(store, uuid.New(), orgID)

	newUser := uuid.New()
	w := do(r, http.MethodPost, "/organization/members",
		`{"user_id":"`+newUser.String()+`","email":"Staff@Example.com","role":"staff"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/organization/members", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.OrganizationUser `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "staff@example.com", body.Data[0].Email)
	assert.Equal(t, newUser, body.Data[0].UserID)

	w = do(r, http.MethodPost, "/organization/members",
		`{"user_id":"`+uuid.NewString()+`","email":"a@b.co","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
