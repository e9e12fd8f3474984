package cohorts

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/pkg/response"
)

// Handler handles cohort HTTP endpoints, nested under programs.
type Handler struct {
	store Store
	svc   *Service
}

// NewHandler creates a cohorts handler.
func NewHandler(store Store, svc *Service) *Handler {
	return &Handler{store: store, svc: svc}
}

// List handles GET /programs/:id/cohorts.
func (h *Handler) List(c *gin.Context) {
	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid program id")
		return
	}
	list, err := h.store.ListByProgram(c.Request.Context(), middleware.OrganizationID(c), programID)
	if err != nil {
		response.Error(c, err, "failed to load cohorts")
		return
	}
	response.OK(c, list)
}

// Create handles POST /programs/:id/cohorts.
func (h *Handler) Create(c *gin.Context) {
	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid program id")
		return
	}
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	form.ProgramID = programID
	cohort, err := h.svc.Save(c.Request.Context(), middleware.OrganizationID(c), nil, form)
	if err != nil {
		response.Error(c, err, "failed to save cohort")
		return
	}
	response.Created(c, cohort)
}

// Update handles PUT /programs/:id/cohorts/:cohortId.
func (h *Handler) Update(c *gin.Context) {
	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid program id")
		return
	}
	id, err := uuid.Parse(c.Param("cohortId"))
	if err != nil {
		response.BadRequest(c, "invalid cohort id")
		return
	}
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	form.ProgramID = programID
	cohort, err := h.svc.Save(c.Request.Context(), middleware.OrganizationID(c), &id, form)
	if err != nil {
		response.Error(c, err, "failed to save cohort")
		return
	}
	response.OK(c, cohort)
}
