package people

import (
	"context"
	"strconv"
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
	List(ctx context.Context, orgID uuid.UUID, f models.PersonFilter) ([]*models.Person, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Person, error)
	Create(ctx context.Context, orgID uuid.UUID, p *models.Person) error
	Update(ctx context.Context, orgID uuid.UUID, p *models.Person) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	EnrollmentsFor(ctx context.Context, orgID uuid.UUID, personIDs []uuid.UUID) ([]*models.Enrollment, error)
	InterviewsFor(ctx context.Context, orgID uuid.UUID, personIDs []uuid.UUID) ([]*models.Interview, error)
}

// Handler handles people HTTP endpoints.
type Handler struct {
	repo   Store
	inv    realtime.Invalidator
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a people handler.
func NewHandler(repo Store, inv realtime.Invalidator, logger *zap.Logger) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, inv: inv, logger: logger, now: time.Now}
}

// PersonRequest is the body for POST /people and PUT /people/:id.
type PersonRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    *string         `json:"email"`
	Phone    *string         `json:"phone"`
	Status   string          `json:"status"`
	Tags     []string        `json:"tags"`
	Metadata models.Metadata `json:"metadata"`
}

func (r PersonRequest) toPerson() *models.Person {
	return &models.Person{
		Name:     strings.TrimSpace(r.Name),
		Email:    trimmed(r.Email),
		Phone:    trimmed(r.Phone),
		Status:   models.PersonStatus(r.Status),
		Tags:     r.Tags,
		Metadata: r.Metadata,
	}
}

// trimmed normalises optional contact fields: blank becomes nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func (h *Handler) enrich(ctx context.Context, orgID uuid.UUID, list []*models.Person) ([]PersonView, error) {
	ids := make([]uuid.UUID, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	enrollments, err := h.repo.EnrollmentsFor(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	interviews, err := h.repo.InterviewsFor(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	return Enrich(list, enrollments, interviews, h.now()), nil
}

// List handles GET /people?status=&tag=&search=&limit=&offset=. Returns the enriched view.
func (h *Handler) List(c *gin.Context) {
	orgID := middleware.OrganizationID(c)
	f := models.PersonFilter{
		Status: models.PersonStatus(c.Query("status")),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(c, "invalid status")
		return
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))

	list, err := h.repo.List(c.Request.Context(), orgID, f)
	if err != nil {
		h.logger.Error("list people", zap.Error(err))
		response.Internal(c, "failed to load people")
		return
	}
	views, err := h.enrich(c.Request.Context(), orgID, list)
	if err != nil {
		h.logger.Error("enrich people", zap.Error(err))
		response.Internal(c, "failed to load people")
		return
	}
	response.OK(c, views)
}

// Get handles GET /people/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid person id")
		return
	}
	orgID := middleware.OrganizationID(c)
	p, err := h.repo.Get(c.Request.Context(), orgID, id)
	if err != nil {
		response.Error(c, err, "failed to load person")
		return
	}
	views, err := h.enrich(c.Request.Context(), orgID, []*models.Person{p})
	if err != nil {
		response.Error(c, err, "failed to load person")
		return
	}
	response.OK(c, views[0])
}

// Create handles POST /people.
func (h *Handler) Create(c *gin.Context) {
	var body PersonRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	orgID := middleware.OrganizationID(c)
	p := body.toPerson()
	if err := h.repo.Create(c.Request.Context(), orgID, p); err != nil {
		response.Error(c, err, "failed to create person")
		return
	}
	h.inv.Invalidate(c.Request.Context(), orgID, realtime.Mutation{Entity: realtime.EntityPerson, Op: realtime.OpCreated, ID: p.ID})
	response.Created(c, p)
}

// Update handles PUT /people/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid person id")
		return
	}
	var body PersonRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	orgID := middleware.OrganizationID(c)
	p := body.toPerson()
	p.ID = id
	if err := h.repo.Update(c.Request.Context(), orgID, p); err != nil {
		response.Error(c, err, "failed to update person")
		return
	}
	h.inv.Invalidate(c.Request.Context(), orgID, realtime.Mutation{Entity: realtime.EntityPerson, Op: realtime.OpUpdated, ID: id})
	response.OK(c, p)
}

// Delete handles DELETE /people/:id. 409 while other records still reference the person.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid person id")
		return
	}
	orgID := middleware.OrganizationID(c)
	if err := h.repo.Delete(c.Request.Context(), orgID, id); err != nil {
		response.Error(c, err, "failed to delete person")
		return
	}
	h.inv.Invalidate(c.Request.Context(), orgID, realtime.Mutation{Entity: realtime.EntityPerson, Op: realtime.OpDeleted, ID: id})
	response.NoContent(c)
}
