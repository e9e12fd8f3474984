package payments

import (
	"context"
	"encoding/json"
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
	List(ctx context.Context, orgID uuid.UUID, f Filter) ([]*models.Payment, error)
	Create(ctx context.Context, orgID uuid.UUID, p *models.Payment) error
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.PaymentStatus, at time.Time) (*models.Payment, error)
}

// Handler handles payment HTTP endpoints.
type Handler struct {
	repo Store
	inv  realtime.Invalidator
	now  func() time.Time
}

// NewHandler creates a payments handler.
func NewHandler(repo Store, inv realtime.Invalidator) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	return &Handler{repo: repo, inv: inv, now: time.Now}
}

func (h *Handler) invalidate(c *gin.Context, op realtime.Op, p *models.Payment) {
	h.inv.Invalidate(c.Request.Context(), middleware.OrganizationID(c), realtime.Mutation{
		Entity: realtime.EntityPayment, Op: op, ID: p.ID, PersonID: p.PersonID,
	})
}

// List handles GET /payments?status=&person_id=.
func (h *Handler) List(c *gin.Context) {
	f := Filter{Status: models.PaymentStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(c, "invalid status")
		return
	}
	if raw := c.Query("person_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid person_id")
			return
		}
		f.PersonID = &id
	}
	list, err := h.repo.List(c.Request.Context(), middleware.OrganizationID(c), f)
	if err != nil {
		response.Error(c, err, "failed to load payments")
		return
	}
	response.OK(c, list)
}

// CreateRequest is the body for POST /payments. Amount is in major units ("1500", 99.9).
type CreateRequest struct {
	PersonID     uuid.UUID   `json:"person_id" binding:"required"`
	ProgramID    *uuid.UUID  `json:"program_id"`
	EnrollmentID *uuid.UUID  `json:"enrollment_id"`
	Amount       json.Number `json:"amount" binding:"required"`
	Currency     string      `json:"currency"`
	Status       string      `json:"status"`
	Provider     string      `json:"provider"`
	ExternalID   string      `json:"external_id"`
}

// Create handles POST /payments.
func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "person_id and amount required")
		return
	}
	amount, err := models.ParseMoney("amount", body.Amount.String())
	if err != nil {
		response.Error(c, err, "")
		return
	}
	p := &models.Payment{
		PersonID:     body.PersonID,
		ProgramID:    body.ProgramID,
		EnrollmentID: body.EnrollmentID,
		Amount:       *amount,
		Currency:     strings.ToUpper(strings.TrimSpace(body.Currency)),
		Status:       models.PaymentStatus(body.Status),
		Provider:     strings.TrimSpace(body.Provider),
		ExternalID:   strings.TrimSpace(body.ExternalID),
	}
	if p.Status == models.PaymentCompleted {
		at := h.now().UTC()
		p.PaidAt = &at
	}
	if err := h.repo.Create(c.Request.Context(), middleware.OrganizationID(c), p); err != nil {
		response.Error(c, err, "failed to create payment")
		return
	}
	h.invalidate(c, realtime.OpCreated, p)
	response.Created(c, p)
}

// StatusRequest is the body for PATCH /payments/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /payments/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}
	var body StatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	p, err := h.repo.UpdateStatus(c.Request.Context(), middleware.OrganizationID(c), id, models.PaymentStatus(body.Status), h.now().UTC())
	if err != nil {
		response.Error(c, err, "failed to update payment")
		return
	}
	h.invalidate(c, realtime.OpUpdated, p)
	response.OK(c, p)
}
