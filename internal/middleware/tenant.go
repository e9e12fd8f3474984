package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hkf/crm/pkg/response"
)

const (
	// HeaderOrganizationID carries the tenant a request operates on.
	HeaderOrganizationID = "X-Organization-ID"
	// ContextOrganizationID is the context key for the verified tenant.
	ContextOrganizationID = "organization_id"
	// ContextOrgRole is the caller's role inside the tenant.
	ContextOrgRole = "org_role"
)

// MembershipChecker resolves a user's role inside an organization ("" when not a member).
type MembershipChecker interface {
	GetUserRole(ctx context.Context, orgID, userID uuid.UUID) (string, error)
}

// RequireOrganization resolves the tenant from the X-Organization-ID header (or the
// "org" query parameter for websocket upgrades) and verifies membership. Call after JWT.
func RequireOrganization(members MembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderOrganizationID)
		if raw == "" {
			raw = c.Query("org")
		}
		if raw == "" {
			response.BadRequest(c, "organization id required")
			c.Abort()
			return
		}
		orgID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			c.Abort()
			return
		}
		role, err := members.GetUserRole(c.Request.Context(), orgID, UserID(c))
		if err != nil || role == "" {
			response.Forbidden(c, "not authorized for this organization")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, orgID)
		c.Set(ContextOrgRole, role)
		c.Next()
	}
}

// OrganizationID returns the tenant verified by RequireOrganization.
// It panics when the middleware did not run, which is a routing bug.
func OrganizationID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextOrganizationID).(uuid.UUID)
}
