package events

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
	"github.com/hkf/crm/pkg/response"
)

// Store is the persistence the handler needs; *Repository satisfies it.
type Store interface {
	List(ctx context.Context, orgID uuid.UUID, f Filter) ([]*models.Event, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Event, error)
	Create(ctx context.Context, orgID uuid.UUID, e *models.Event) error
	Update(ctx context.Context, orgID uuid.UUID, e *models.Event) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   Store
	inv    realtime.Invalidator
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates an events handler.
func NewHandler(repo Store, inv realtime.Invalidator, logger *zap.Logger) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, inv: inv, logger: logger, now: time.Now}
}

// EventRequest is the body for POST /events and PUT /events/:id.
type EventRequest struct {
	Name           string                `json:"name" binding:"required"`
	Description    string                `json:"description"`
	Location       string                `json:"location"`
	StartsAt       time.Time             `json:"starts_at" binding:"required"`
	EndsAt         *time.Time            `json:"ends_at"`
	Capacity       *int                  `json:"capacity"`
	TargetAudience models.TargetAudience `json:"target_audience"`
	Status         string                `json:"status"`
}

func (r EventRequest) toEvent() *models.Event {
	return &models.Event{
		Name:           strings.TrimSpace(r.Name),
		Description:    r.Description,
		Location:       strings.TrimSpace(r.Location),
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		Capacity:       r.Capacity,
		TargetAudience: r.TargetAudience,
		Status:         models.EventStatus(r.Status),
	}
}

func (h *Handler) invalidate(c *gin.Context, op realtime.Op, id uuid.UUID) {
	h.inv.Invalidate(c.Request.Context(), middleware.OrganizationID(c), realtime.Mutation{Entity: realtime.EntityEvent, Op: op, ID: id})
}

// List handles GET /events?status=&upcoming=true.
func (h *Handler) List(c *gin.Context) {
	f := Filter{Status: models.EventStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(c, "invalid status")
		return
	}
	if c.Query("upcoming") == "true" {
		now := h.now()
		f.From = &now
	}
	list, err := h.repo.List(c.Request.Context(), middleware.OrganizationID(c), f)
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.Get(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		response.Error(c, err, "failed to load event")
		return
	}
	response.OK(c, e)
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var body EventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and starts_at required")
		return
	}
	e := body.toEvent()
	if err := h.repo.Create(c.Request.Context(), middleware.OrganizationID(c), e); err != nil {
		response.Error(c, err, "failed to create event")
		return
	}
	h.invalidate(c, realtime.OpCreated, e.ID)
	response.Created(c, e)
}

// Update handles PUT /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var body EventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and starts_at required")
		return
	}
	e := body.toEvent()
	e.ID = id
	if err := h.repo.Update(c.Request.Context(), middleware.OrganizationID(c), e); err != nil {
		response.Error(c, err, "failed to update event")
		return
	}
	h.invalidate(c, realtime.OpUpdated, id)
	response.OK(c, e)
}

// Delete handles DELETE /events/:id. Registrations are removed with the event.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), middleware.OrganizationID(c), id); err != nil {
		response.Error(c, err, "failed to delete event")
		return
	}
	h.invalidate(c, realtime.OpDeleted, id)
	response.NoContent(c)
}
