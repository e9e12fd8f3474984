package interviews

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
	List(ctx context.Context, orgID uuid.UUID, f models.InterviewFilter) ([]*models.Interview, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Interview, error)
	Create(ctx context.Context, orgID uuid.UUID, i *models.Interview) error
	Update(ctx context.Context, orgID uuid.UUID, i *models.Interview) error
}

// Handler handles interview HTTP endpoints.
type Handler struct {
	repo Store
	inv  realtime.Invalidator
}

// NewHandler creates an interviews handler.
func NewHandler(repo Store, inv realtime.Invalidator) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	return &Handler{repo: repo, inv: inv}
}

func (h *Handler) invalidate(c *gin.Context, op realtime.Op, i *models.Interview) {
	h.inv.Invalidate(c.Request.Context(), middleware.OrganizationID(c), realtime.Mutation{
		Entity: realtime.EntityInterview, Op: op, ID: i.ID, PersonID: i.PersonID,
	})
}

// List handles GET /interviews?status=&from=&to=. from/to accept YYYY-MM-DD or RFC 3339;
// a date-only "to" includes that whole day.
func (h *Handler) List(c *gin.Context) {
	f := models.InterviewFilter{Status: models.InterviewStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(c, "invalid status")
		return
	}
	var err error
	if f.From, err = models.ParseOptionalDate("from", c.Query("from")); err != nil {
		response.Error(c, err, "")
		return
	}
	if f.To, err = models.ParseOptionalDate("to", c.Query("to")); err != nil {
		response.Error(c, err, "")
		return
	}
	if f.To != nil && len(c.Query("to")) == len("2006-01-02") {
		end := f.To.AddDate(0, 0, 1)
		f.To = &end
	}
	list, err := h.repo.List(c.Request.Context(), middleware.OrganizationID(c), f)
	if err != nil {
		response.Error(c, err, "failed to load interviews")
		return
	}
	response.OK(c, list)
}

// Get handles GET /interviews/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interview id")
		return
	}
	i, err := h.repo.Get(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		response.Error(c, err, "failed to load interview")
		return
	}
	response.OK(c, i)
}

// ScheduleRequest is the body for POST /interviews.
type ScheduleRequest struct {
	PersonID        uuid.UUID  `json:"person_id" binding:"required"`
	ProgramID       uuid.UUID  `json:"program_id" binding:"required"`
	EnrollmentID    *uuid.UUID `json:"enrollment_id"`
	ScheduledAt     time.Time  `json:"scheduled_at" binding:"required"`
	DurationMinutes int        `json:"duration_minutes"`
	Location        string     `json:"location"`
}

// Schedule handles POST /interviews.
func (h *Handler) Schedule(c *gin.Context) {
	var body ScheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "person_id, program_id and scheduled_at required")
		return
	}
	i := &models.Interview{
		PersonID:        body.PersonID,
		ProgramID:       body.ProgramID,
		EnrollmentID:    body.EnrollmentID,
		ScheduledAt:     body.ScheduledAt,
		DurationMinutes: body.DurationMinutes,
		Location:        strings.TrimSpace(body.Location),
	}
	if err := h.repo.Create(c.Request.Context(), middleware.OrganizationID(c), i); err != nil {
		response.Error(c, err, "failed to schedule interview")
		return
	}
	h.invalidate(c, realtime.OpCreated, i)
	response.Created(c, i)
}

// UpdateRequest is the body for PATCH /interviews/:id. Absent fields keep their value;
// outcome "" clears the outcome.
type UpdateRequest struct {
	ScheduledAt      *time.Time               `json:"scheduled_at"`
	DurationMinutes  *int                     `json:"duration_minutes"`
	Location         *string                  `json:"location"`
	Status           *models.InterviewStatus  `json:"status"`
	Outcome          *models.InterviewOutcome `json:"outcome"`
	InterviewerNotes *models.InterviewerNotes `json:"interviewer_notes"`
}

func (r UpdateRequest) apply(i *models.Interview) {
	if r.ScheduledAt != nil {
		i.ScheduledAt = *r.ScheduledAt
	}
	if r.DurationMinutes != nil {
		i.DurationMinutes = *r.DurationMinutes
	}
	if r.Location != nil {
		i.Location = strings.TrimSpace(*r.Location)
	}
	if r.Status != nil {
		i.Status = *r.Status
	}
	if r.Outcome != nil {
		if *r.Outcome == "" {
			i.Outcome = nil
		} else {
			o := *r.Outcome
			i.Outcome = &o
		}
	}
	if r.InterviewerNotes != nil {
		i.InterviewerNotes = *r.InterviewerNotes
	}
}

// Update handles PATCH /interviews/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interview id")
		return
	}
	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	orgID := middleware.OrganizationID(c)
	i, err := h.repo.Get(c.Request.Context(), orgID, id)
	if err != nil {
		response.Error(c, err, "failed to load interview")
		return
	}
	body.apply(i)
	if err := h.repo.Update(c.Request.Context(), orgID, i); err != nil {
		response.Error(c, err, "failed to update interview")
		return
	}
	h.invalidate(c, realtime.OpUpdated, i)
	response.OK(c, i)
}
