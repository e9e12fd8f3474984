package conversations

import (
	"context"
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

type memStore struct {
	convs map[uuid.UUID]*models.Conversation
}

func (m *memStore) List(_ context.Context, orgID uuid.UUID) ([]*models.Conversation, error) {
	out := []*models.Conversation{}
	for _, c := range m.convs {
		if c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, orgID, id uuid.UUID) (*models.Conversation, error) {
	c, ok := m.convs[id]
	if !ok || c.OrganizationID != orgID {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (m *memStore) Create(_ context.Context, orgID uuid.UUID, c *models.Conversation) error {
	c.ID, c.OrganizationID = uuid.New(), orgID
	m.convs[c.ID] = c
	return nil
}

func (m *memStore) AppendMessage(ctx context.Context, orgID uuid.UUID, msg *models.ConversationMessage) error {
	if !models.ValidRole(msg.Role) {
		return models.Invalid("role", "unknown role %q", msg.Role)
	}
	c, err := m.Get(ctx, orgID, msg.ConversationID)
	if err != nil {
		return err
	}
	msg.ID = uuid.New()
	c.Messages = append(c.Messages, *msg)
	return nil
}

func (m *memStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := m.Get(ctx, orgID, id); err != nil {
		return err
	}
	delete(m.convs, id)
	return nil
}

type recordingInvalidator struct{ got []realtime.Mutation }

func (r *recordingInvalidator) Invalidate(_ context.Context, _ uuid.UUID, m realtime.Mutation) {
	r.got = append(r.got, m)
}

func setup(orgID, userID uuid.UUID, store *memStore, inv realtime.Invalidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextOrganizationID, orgID)
		c.Set(middleware.ContextUserID, userID)
	})
	h := NewHandler(store, inv)
	r.GET("/conversations/:id", h.Get)
	r.POST("/conversations", h.Create)
	r.POST("/conversations/:id/messages", h.AppendMessage)
	r.DELETE("/conversations/:id", h.Delete)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestConversationLifecycle(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	store := &memStore{convs: map[uuid.UUID]*models.Conversation{}}
	inv := &recordingInvalidator{}
	r := setup(orgID, userID, store, inv)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/conversations", `{"title":" Follow-ups "}`).Code)
	require.Len(t, store.convs, 1)
	var conv *models.Conversation
	for _, c := range store.convs {
		conv = c
	}
	assert.Equal(t, userID, conv.UserID)
	assert.Equal(t, "Follow-ups", conv.Title)
	path := "/conversations/" + conv.ID.String()

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, path+"/messages", `{"content":"Who missed interviews?"}`).Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, path+"/messages", `{"role":"assistant","content":"Two people."}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, path+"/messages", `{"role":"robot","content":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, path+"/messages", `{"role":"user"}`).Code)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, conv.Messages[1].Role)

	require.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, path, "").Code)
	assert.Len(t, inv.got, 4)
	assert.Equal(t, realtime.OpDeleted, inv.got[3].Op)
}

func TestOtherTenantConversation(t *testing.T) {
	c := &models.Conversation{ID: uuid.New(), OrganizationID: uuid.New()}
	store := &memStore{convs: map[uuid.UUID]*models.Conversation{c.ID: c}}
	r := setup(uuid.New(), uuid.New(), store, nil)
	path := "/conversations/" + c.ID.String()

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, path+"/messages", `{"content":"hi"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, path, "").Code)
	assert.Len(t, store.convs, 1)
}
