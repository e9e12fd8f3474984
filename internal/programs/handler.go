package programs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/pkg/response"
)

// Handler handles program HTTP endpoints.
type Handler struct {
	store Store
	svc   *Service
}

// NewHandler creates a programs handler.
func NewHandler(store Store, svc *Service) *Handler {
	return &Handler{store: store, svc: svc}
}

// List handles GET /programs?active=true.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context(), middleware.OrganizationID(c), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err, "failed to load programs")
		return
	}
	response.OK(c, list)
}

// Get handles GET /programs/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid program id")
		return
	}
	p, err := h.store.Get(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		response.Error(c, err, "failed to load program")
		return
	}
	response.OK(c, p)
}

// Create handles POST /programs.
func (h *Handler) Create(c *gin.Context) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	p, err := h.svc.Save(c.Request.Context(), middleware.OrganizationID(c), nil, form)
	if err != nil {
		response.Error(c, err, "failed to save program")
		return
	}
	response.Created(c, p)
}

// Update handles PUT /programs/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid program id")
		return
	}
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	p, err := h.svc.Save(c.Request.Context(), middleware.OrganizationID(c), &id, form)
	if err != nil {
		response.Error(c, err, "failed to save program")
		return
	}
	response.OK(c, p)
}
