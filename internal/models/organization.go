package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant every other row belongs to.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roles a user can hold inside an organization.
const (
	OrgRoleOwner   = "owner"
	OrgRoleManager = "manager"
	OrgRoleStaff   = "staff"
)

// OrganizationUser links an identity-provider user to an organization with a role.
type OrganizationUser struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
