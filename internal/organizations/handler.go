package organizations

import (
	"context"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/response"
)

// Slug must be lowercase alphanumeric and hyphens only, 2–64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Store is the persistence the handler needs; *Repository satisfies it.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	AddUser(ctx context.Context, orgID, userID uuid.UUID, email, role string) error
	ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationUser, error)
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo Store
}

// NewHandler creates an organizations handler.
func NewHandler(repo Store) *Handler {
	return &Handler{repo: repo}
}

// CreateOrganizationRequest is the body for POST /organizations.
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// AddMemberRequest is the body for POST /api/organization/members.
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Email  string `json:"email" binding:"required,email"`
	Role   string `json:"role" binding:"required"`
}

// CreateOrganization handles POST /organizations. Creates org and adds current user as owner.
func (h *Handler) CreateOrganization(c *gin.Context) {
	userID := middleware.UserID(c)
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and slug required")
		return
	}
	body.Slug = strings.ToLower(strings.TrimSpace(body.Slug))
	if !slugRegex.MatchString(body.Slug) {
		response.BadRequest(c, "slug must be 2–64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 1 || len(body.Name) > 255 {
		response.BadRequest(c, "name must be 1–255 characters")
		return
	}
	org := &models.Organization{Name: body.Name, Slug: body.Slug}
	if err := h.repo.Create(c.Request.Context(), org); err != nil {
		response.Error(c, err, "failed to create organization")
		return
	}
	email, _ := c.Get(middleware.ContextUserEmail)
	emailStr, _ := email.(string)
	if err := h.repo.AddUser(c.Request.Context(), org.ID, userID, emailStr, models.OrgRoleOwner); err != nil {
		response.Error(c, err, "failed to add you as owner")
		return
	}
	response.Created(c, org)
}

// ListMyOrganizations handles GET /organizations. Returns orgs the current user is a member of.
func (h *Handler) ListMyOrganizations(c *gin.Context) {
	orgs, err := h.repo.ListOrganizationsForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err, "failed to load organizations")
		return
	}
	response.OK(c, orgs)
}

// ListMembers handles GET /api/organization/members for the current tenant.
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.repo.ListMembers(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Error(c, err, "failed to load members")
		return
	}
	response.OK(c, members)
}

// AddMember handles POST /api/organization/members (owner only).
func (h *Handler) AddMember(c *gin.Context) {
	var body AddMemberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "user_id, email and role required")
		return
	}
	switch body.Role {
	case models.OrgRoleOwner, models.OrgRoleManager, models.OrgRoleStaff:
	default:
		response.BadRequest(c, "role must be owner, manager or staff")
		return
	}
	userID, _ := uuid.Parse(body.UserID)
	orgID := middleware.OrganizationID(c)
	if err := h.repo.AddUser(c.Request.Context(), orgID, userID, strings.ToLower(body.Email), body.Role); err != nil {
		response.Error(c, err, "failed to add member")
		return
	}
	response.Created(c, gin.H{"organization_id": orgID, "user_id": userID, "role": body.Role})
}
