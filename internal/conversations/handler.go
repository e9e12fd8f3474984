package conversations

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
	"github.com/hkf/crm/pkg/response"
)

// Store is the persistence the handler needs; *Repository satisfies it.
type Store interface {
	List(ctx context.Context, orgID uuid.UUID) ([]*models.Conversation, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Conversation, error)
	Create(ctx context.Context, orgID uuid.UUID, c *models.Conversation) error
	AppendMessage(ctx context.Context, orgID uuid.UUID, m *models.ConversationMessage) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

// Handler handles conversation HTTP endpoints. Replies are produced by the external
// assistant and arrive here as assistant messages.
type Handler struct {
	repo Store
	inv  realtime.Invalidator
}

// NewHandler creates a conversations handler.
func NewHandler(repo Store, inv realtime.Invalidator) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	return &Handler{repo: repo, inv: inv}
}

func (h *Handler) invalidate(c *gin.Context, op realtime.Op, id uuid.UUID) {
	h.inv.Invalidate(c.Request.Context(), middleware.OrganizationID(c), realtime.Mutation{Entity: realtime.EntityConversation, Op: op, ID: id})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /conversations.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Error(c, err, "failed to load conversations")
		return
	}
	response.OK(c, list)
}

// Get handles GET /conversations/:id, messages included.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	conv, err := h.repo.Get(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		response.Error(c, err, "failed to load conversation")
		return
	}
	response.OK(c, conv)
}

// CreateRequest is the body for POST /conversations.
type CreateRequest struct {
	PersonID *uuid.UUID      `json:"person_id"`
	Title    string          `json:"title"`
	Context  models.Metadata `json:"context"`
}

// Create handles POST /conversations. The caller owns the conversation.
func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	conv := &models.Conversation{
		UserID:   middleware.UserID(c),
		PersonID: body.PersonID,
		Title:    strings.TrimSpace(body.Title),
		Context:  body.Context,
	}
	if err := h.repo.Create(c.Request.Context(), middleware.OrganizationID(c), conv); err != nil {
		response.Error(c, err, "failed to create conversation")
		return
	}
	h.invalidate(c, realtime.OpCreated, conv.ID)
	response.Created(c, conv)
}

// MessageRequest is the body for POST /conversations/:id/messages.
type MessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content" binding:"required"`
}

// AppendMessage handles POST /conversations/:id/messages. Role defaults to user.
func (h *Handler) AppendMessage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body MessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "content required")
		return
	}
	m := &models.ConversationMessage{ConversationID: id, Role: body.Role, Content: strings.TrimSpace(body.Content)}
	if m.Role == "" {
		m.Role = models.RoleUser
	}
	if err := h.repo.AppendMessage(c.Request.Context(), middleware.OrganizationID(c), m); err != nil {
		response.Error(c, err, "failed to add message")
		return
	}
	h.invalidate(c, realtime.OpUpdated, id)
	response.Created(c, m)
}

// Delete handles DELETE /conversations/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), middleware.OrganizationID(c), id); err != nil {
		response.Error(c, err, "failed to delete conversation")
		return
	}
	h.invalidate(c, realtime.OpDeleted, id)
	response.NoContent(c)
}
