package registrations

import (
	"context"
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
	ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*models.EventRegistration, error)
	Register(ctx context.Context, orgID, eventID, personID uuid.UUID, guests int) (*models.EventRegistration, error)
	Cancel(ctx context.Context, orgID, eventID, id uuid.UUID) (cancelled, promoted *models.EventRegistration, err error)
	CheckIn(ctx context.Context, orgID, eventID, id uuid.UUID, at time.Time) (*models.EventRegistration, error)
}

// Handler handles event registration HTTP endpoints.
type Handler struct {
	repo   Store
	inv    realtime.Invalidator
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a registrations handler.
func NewHandler(repo Store, inv realtime.Invalidator, logger *zap.Logger) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, inv: inv, logger: logger, now: time.Now}
}

func (h *Handler) invalidate(c *gin.Context, op realtime.Op, reg *models.EventRegistration) {
	h.inv.Invalidate(c.Request.Context(), middleware.OrganizationID(c), realtime.Mutation{
		Entity: realtime.EntityRegistration, Op: op, ID: reg.ID, ParentID: reg.EventID, PersonID: reg.PersonID,
	})
}

func ids(c *gin.Context) (eventID, regID uuid.UUID, ok bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return eventID, regID, false
	}
	if raw := c.Param("registrationId"); raw != "" {
		if regID, err = uuid.Parse(raw); err != nil {
			response.BadRequest(c, "invalid registration id")
			return eventID, regID, false
		}
	}
	return eventID, regID, true
}

// List handles GET /events/:id/registrations.
func (h *Handler) List(c *gin.Context) {
	eventID, _, ok := ids(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), middleware.OrganizationID(c), eventID)
	if err != nil {
		response.Error(c, err, "failed to load registrations")
		return
	}
	response.OK(c, list)
}

// RegisterRequest is the body for POST /events/:id/registrations.
type RegisterRequest struct {
	PersonID uuid.UUID `json:"person_id" binding:"required"`
	Guests   int       `json:"guests"`
}

// Register handles POST /events/:id/registrations. The registration is waitlisted when
// the event is full.
func (h *Handler) Register(c *gin.Context) {
	eventID, _, ok := ids(c)
	if !ok {
		return
	}
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "person_id required")
		return
	}
	reg, err := h.repo.Register(c.Request.Context(), middleware.OrganizationID(c), eventID, body.PersonID, body.Guests)
	if err != nil {
		response.Error(c, err, "failed to register")
		return
	}
	h.invalidate(c, realtime.OpCreated, reg)
	response.Created(c, reg)
}

// Cancel handles POST /events/:id/registrations/:registrationId/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	eventID, regID, ok := ids(c)
	if !ok {
		return
	}
	cancelled, promoted, err := h.repo.Cancel(c.Request.Context(), middleware.OrganizationID(c), eventID, regID)
	if err != nil {
		response.Error(c, err, "failed to cancel registration")
		return
	}
	if promoted != nil {
		h.logger.Info("waitlisted registration promoted",
			zap.String("event_id", eventID.String()), zap.String("registration_id", promoted.ID.String()))
	}
	h.invalidate(c, realtime.OpUpdated, cancelled)
	response.OK(c, gin.H{"registration": cancelled, "promoted": promoted})
}

// CheckIn handles POST /events/:id/registrations/:registrationId/check-in.
func (h *Handler) CheckIn(c *gin.Context) {
	eventID, regID, ok := ids(c)
	if !ok {
		return
	}
	reg, err := h.repo.CheckIn(c.Request.Context(), middleware.OrganizationID(c), eventID, regID, h.now().UTC())
	if err != nil {
		response.Error(c, err, "failed to check in")
		return
	}
	h.invalidate(c, realtime.OpUpdated, reg)
	response.OK(c, reg)
}
