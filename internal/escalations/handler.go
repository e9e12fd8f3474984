package escalations

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
	"github.com/hkf/crm/pkg/response"
)

// Store is the persistence the handler needs; *Repository satisfies it.
type Store interface {
	List(ctx context.Context, orgID uuid.UUID, includeClosed bool) ([]*models.Escalation, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Escalation, error)
	Create(ctx context.Context, orgID uuid.UUID, e *models.Escalation) error
	Update(ctx context.Context, orgID uuid.UUID, e *models.Escalation, at time.Time) error
}

// Handler handles escalation HTTP endpoints.
type Handler struct {
	repo Store
	inv  realtime.Invalidator
	now  func() time.Time
}

// NewHandler creates an escalations handler.
func NewHandler(repo Store, inv realtime.Invalidator) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	return &Handler{repo: repo, inv: inv, now: time.Now}
}

func (h *Handler) invalidate(c *gin.Context, op realtime.Op, e *models.Escalation) {
	m := realtime.Mutation{Entity: realtime.EntityEscalation, Op: op, ID: e.ID}
	if e.PersonID != nil {
		m.PersonID = *e.PersonID
	}
	h.inv.Invalidate(c.Request.Context(), middleware.OrganizationID(c), m)
}

// List handles GET /escalations?all=true.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), middleware.OrganizationID(c), c.Query("all") == "true")
	if err != nil {
		response.Error(c, err, "failed to load escalations")
		return
	}
	response.OK(c, list)
}

// CreateRequest is the body for POST /escalations.
type CreateRequest struct {
	PersonID     *uuid.UUID `json:"person_id"`
	EnrollmentID *uuid.UUID `json:"enrollment_id"`
	InterviewID  *uuid.UUID `json:"interview_id"`
	Reason       string     `json:"reason" binding:"required"`
	Urgency      string     `json:"urgency"`
}

// Create handles POST /escalations.
func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "reason required")
		return
	}
	e := &models.Escalation{
		PersonID:     body.PersonID,
		EnrollmentID: body.EnrollmentID,
		InterviewID:  body.InterviewID,
		Reason:       strings.TrimSpace(body.Reason),
		Urgency:      models.Urgency(body.Urgency),
	}
	if err := h.repo.Create(c.Request.Context(), middleware.OrganizationID(c), e); err != nil {
		response.Error(c, err, "failed to create escalation")
		return
	}
	h.invalidate(c, realtime.OpCreated, e)
	response.Created(c, e)
}

// UpdateRequest is the body for PATCH /escalations/:id. Absent fields keep their value;
// unassign clears the assignee.
type UpdateRequest struct {
	Status     *models.EscalationStatus `json:"status"`
	Urgency    *models.Urgency          `json:"urgency"`
	AssignedTo *uuid.UUID               `json:"assigned_to"`
	Unassign   bool                     `json:"unassign"`
	Resolution *string                  `json:"resolution"`
}

// Update handles PATCH /escalations/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid escalation id")
		return
	}
	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	orgID := middleware.OrganizationID(c)
	e, err := h.repo.Get(c.Request.Context(), orgID, id)
	if err != nil {
		response.Error(c, err, "failed to load escalation")
		return
	}
	if body.Status != nil {
		e.Status = *body.Status
	}
	if body.Urgency != nil {
		e.Urgency = *body.Urgency
	}
	switch {
	case body.Unassign:
		e.AssignedTo = nil
	case body.AssignedTo != nil:
		e.AssignedTo = body.AssignedTo
	}
	if body.Resolution != nil {
		e.Resolution = strings.TrimSpace(*body.Resolution)
	}
	if err := h.repo.Update(c.Request.Context(), orgID, e, h.now().UTC()); err != nil {
		response.Error(c, err, "failed to update escalation")
		return
	}
	h.invalidate(c, realtime.OpUpdated, e)
	response.OK(c, e)
}
