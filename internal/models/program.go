package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationField is one question on a program's application form.
type ApplicationField struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text, textarea, email, number, select
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// ProgramConfig is the fixed shape of programs.config.
// Nil pointers mean "none/unlimited".
type ProgramConfig struct {
	RequiresInterview bool               `json:"requiresInterview"`
	RequiresPayment   bool               `json:"requiresPayment"`
	PaymentAmount     *int64             `json:"paymentAmount"`
	Currency          string             `json:"currency,omitempty"`
	MaxParticipants   *int               `json:"maxParticipants"`
	ApplicationFields []ApplicationField `json:"applicationFields"`
}

// Program is an offering people apply to.
type Program struct {
	ID             uuid.UUID     `json:"id"`
	OrganizationID uuid.UUID     `json:"organization_id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Type           string        `json:"type"`
	Config         ProgramConfig `json:"config"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
