package communications

import (
	"context"
	"strconv"
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
	Create(ctx context.Context, orgID uuid.UUID, c *models.Communication) error
	ListByPerson(ctx context.Context, orgID, personID uuid.UUID, limit int) ([]*models.Communication, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.CommunicationStatus, sentAt *time.Time, errMsg string) error
}

// Handler handles communication log HTTP endpoints.
type Handler struct {
	repo   Store
	inv    realtime.Invalidator
	logger *zap.Logger
}

// NewHandler creates a communications handler.
func NewHandler(repo Store, inv realtime.Invalidator, logger *zap.Logger) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, inv: inv, logger: logger}
}

// ListByPerson handles GET /people/:id/communications (the person timeline).
func (h *Handler) ListByPerson(c *gin.Context) {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid person id")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.repo.ListByPerson(c.Request.Context(), middleware.OrganizationID(c), personID, limit)
	if err != nil {
		response.Error(c, err, "failed to load communications")
		return
	}
	response.OK(c, list)
}

// LogRequest is the body for POST /communications.
type LogRequest struct {
	PersonID  string     `json:"person_id" binding:"required,uuid"`
	Channel   string     `json:"channel" binding:"required"`
	Direction string     `json:"direction" binding:"required"`
	Status    string     `json:"status"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	SentAt    *time.Time `json:"sent_at"`
}

// Log handles POST /communications: records a message exchanged outside the system.
func (h *Handler) Log(c *gin.Context) {
	var body LogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "person_id, channel and direction required")
		return
	}
	personID, _ := uuid.Parse(body.PersonID)
	comm := &models.Communication{
		PersonID:  personID,
		Channel:   models.Channel(body.Channel),
		Direction: models.Direction(body.Direction),
		Status:    models.CommunicationStatus(body.Status),
		Subject:   body.Subject,
		Body:      body.Body,
		SentAt:    body.SentAt,
	}
	orgID := middleware.OrganizationID(c)
	if err := h.repo.Create(c.Request.Context(), orgID, comm); err != nil {
		response.Error(c, err, "failed to log communication")
		return
	}
	h.inv.Invalidate(c.Request.Context(), orgID, realtime.Mutation{
		Entity: realtime.EntityCommunication, Op: realtime.OpCreated, ID: comm.ID, PersonID: comm.PersonID,
	})
	response.Created(c, comm)
}

// UpdateStatusRequest is the body for PATCH /communications/:id/status.
type UpdateStatusRequest struct {
	Status       string `json:"status" binding:"required"`
	ErrorMessage string `json:"error_message"`
}

// UpdateStatus handles PATCH /communications/:id/status (delivery receipts).
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid communication id")
		return
	}
	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	status := models.CommunicationStatus(body.Status)
	var sentAt *time.Time
	if status == models.CommunicationSent || status == models.CommunicationDelivered {
		now := time.Now().UTC()
		sentAt = &now
	}
	if err := h.repo.UpdateStatus(c.Request.Context(), middleware.OrganizationID(c), id, status, sentAt, body.ErrorMessage); err != nil {
		response.Error(c, err, "failed to update communication")
		return
	}
	response.OK(c, gin.H{"id": id, "status": status})
}
