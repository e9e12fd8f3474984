package models

import (
	"time"

	"github.com/google/uuid"
)

// PersonStatus is the lifecycle state of a person record.
type PersonStatus string

const (
	PersonActive   PersonStatus = "active"
	PersonInactive PersonStatus = "inactive"
	PersonPending  PersonStatus = "pending"
	PersonArchived PersonStatus = "archived"
)

// Valid reports whether s is a known person status.
func (s PersonStatus) Valid() bool {
	switch s {
	case PersonActive, PersonInactive, PersonPending, PersonArchived:
		return true
	}
	return false
}

// Well-known optional keys in Person.Metadata.
const (
	MetaSource    = "source"
	MetaCity      = "city"
	MetaBirthDate = "birth_date"
	MetaReferral  = "referral"
)

// Metadata is an open key/value bag stored as JSONB.
type Metadata map[string]interface{}

// String returns the value stored under key if it is a string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Person is a contact in the CRM: applicant, participant, alumnus.
type Person struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	Name           string       `json:"name"`
	Email          *string      `json:"email,omitempty"`
	Phone          *string      `json:"phone,omitempty"`
	Status         PersonStatus `json:"status"`
	Tags           []string     `json:"tags"`
	Metadata       Metadata     `json:"metadata"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasEmail reports whether the person can be reached by email.
func (p *Person) HasEmail() bool {
	return p.Email != nil && *p.Email != ""
}

// Validate checks the fields required to persist a person.
func (p *Person) Validate() error {
	if p.Name == "" {
		return Invalid("name", "is required")
	}
	if p.Status == "" {
		p.Status = PersonActive
	}
	if !p.Status.Valid() {
		return Invalid("status", "unknown status %q", p.Status)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Metadata == nil {
		p.Metadata = Metadata{}
	}
	return nil
}

// PersonFilter narrows people listings.
type PersonFilter struct {
	Status PersonStatus
	Tag    string
	Search string
	Limit  int
	Offset int
}
