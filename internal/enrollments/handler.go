package enrollments

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/response"
)

// Handler handles enrollment HTTP endpoints.
type Handler struct {
	store Store
	svc   *Service
}

// NewHandler creates an enrollments handler.
func NewHandler(store Store, svc *Service) *Handler {
	return &Handler{store: store, svc: svc}
}

func optionalUUID(raw string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// List handles GET /enrollments?status=&program_id=&person_id=&limit=.
func (h *Handler) List(c *gin.Context) {
	f := models.EnrollmentFilter{Status: models.EnrollmentStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(c, "invalid status")
		return
	}
	var ok bool
	if f.ProgramID, ok = optionalUUID(c.Query("program_id")); !ok {
		response.BadRequest(c, "invalid program_id")
		return
	}
	if f.PersonID, ok = optionalUUID(c.Query("person_id")); !ok {
		response.BadRequest(c, "invalid person_id")
		return
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	list, err := h.store.List(c.Request.Context(), middleware.OrganizationID(c), f)
	if err != nil {
		response.Error(c, err, "failed to load enrollments")
		return
	}
	response.OK(c, list)
}

// Get handles GET /enrollments/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid enrollment id")
		return
	}
	e, err := h.store.Get(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		response.Error(c, err, "failed to load enrollment")
		return
	}
	response.OK(c, e)
}

// ApplyRequest is the body for POST /enrollments.
type ApplyRequest struct {
	PersonID        string          `json:"person_id" binding:"required,uuid"`
	ProgramID       string          `json:"program_id" binding:"required,uuid"`
	CohortID        string          `json:"cohort_id"`
	ApplicationData models.Metadata `json:"application_data"`
}

// Apply handles POST /enrollments.
func (h *Handler) Apply(c *gin.Context) {
	var body ApplyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "person_id and program_id required")
		return
	}
	cohortID, ok := optionalUUID(body.CohortID)
	if !ok {
		response.BadRequest(c, "invalid cohort_id")
		return
	}
	e := &models.Enrollment{
		PersonID:        uuid.MustParse(body.PersonID),
		ProgramID:       uuid.MustParse(body.ProgramID),
		CohortID:        cohortID,
		ApplicationData: body.ApplicationData,
	}
	if err := h.svc.Apply(c.Request.Context(), middleware.OrganizationID(c), e); err != nil {
		response.Error(c, err, "failed to create enrollment")
		return
	}
	response.Created(c, e)
}

// StatusRequest is the body for PATCH /enrollments/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /enrollments/:id/status. 409 when the transition is not allowed.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid enrollment id")
		return
	}
	var body StatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	e, err := h.svc.ChangeStatus(c.Request.Context(), middleware.OrganizationID(c), id, models.EnrollmentStatus(body.Status))
	if err != nil {
		response.Error(c, err, "failed to update enrollment")
		return
	}
	response.OK(c, e)
}

// DecisionRequest is the body for POST /enrollments/:id/decision.
type DecisionRequest struct {
	Decision *models.Decision `json:"decision"`
	Note     string           `json:"note"`
	Notify   bool             `json:"notify"`
}

// Decide handles POST /enrollments/:id/decision. The response carries the committed
// enrollment and, separately, the notification outcome.
func (h *Handler) Decide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid enrollment id")
		return
	}
	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	res, err := h.svc.RecordDecision(c.Request.Context(), middleware.OrganizationID(c), id, DecisionInput{
		Decision: body.Decision,
		Note:     body.Note,
		Notify:   body.Notify,
	})
	if err != nil {
		response.Error(c, err, "failed to record decision")
		return
	}
	response.OK(c, res)
}
