package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// TargetAudience is the fixed shape of events.target_audience.
type TargetAudience struct {
	ProgramIDs []uuid.UUID        `json:"programIds,omitempty"`
	CohortIDs  []uuid.UUID        `json:"cohortIds,omitempty"`
	Statuses   []EnrollmentStatus `json:"statuses,omitempty"`
	Tags       []string           `json:"tags,omitempty"`
}

// Event is a gathering people register for.
type Event struct {
	ID                uuid.UUID      `json:"id"`
	OrganizationID    uuid.UUID      `json:"organization_id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Location          string         `json:"location"`
	StartsAt          time.Time      `json:"starts_at"`
	EndsAt            *time.Time     `json:"ends_at,omitempty"`
	Capacity          *int           `json:"capacity"`
	RegistrationCount int            `json:"registration_count"`
	TargetAudience    TargetAudience `json:"target_audience"`
	Status            EventStatus    `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Validate checks an event before insert or update.
func (e *Event) Validate() error {
	if e.Name == "" {
		return Invalid("name", "is required")
	}
	if e.StartsAt.IsZero() {
		return Invalid("starts_at", "is required")
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return Invalid("ends_at", "must not be before starts_at")
	}
	if e.Capacity != nil && *e.Capacity < 0 {
		return Invalid("capacity", "must not be negative")
	}
	if e.Status == "" {
		e.Status = EventDraft
	}
	if !e.Status.Valid() {
		return Invalid("status", "unknown status %q", e.Status)
	}
	return nil
}

// HasRoom reports whether another registration fits under capacity.
func (e *Event) HasRoom() bool {
	return e.Capacity == nil || e.RegistrationCount < *e.Capacity
}

// RegistrationStatus is the attendance state of an event registration.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationAttended   RegistrationStatus = "attended"
	RegistrationNoShow     RegistrationStatus = "no_show"
)

// Valid reports whether s is a known registration status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationRegistered, RegistrationCancelled, RegistrationWaitlisted, RegistrationAttended, RegistrationNoShow:
		return true
	}
	return false
}

// EventRegistration links a person to an event.
type EventRegistration struct {
	ID             uuid.UUID          `json:"id"`
	OrganizationID uuid.UUID          `json:"organization_id"`
	EventID        uuid.UUID          `json:"event_id"`
	PersonID       uuid.UUID          `json:"person_id"`
	Status         RegistrationStatus `json:"status"`
	Guests         int                `json:"guests"`
	CheckedInAt    *time.Time         `json:"checked_in_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	PersonName string `json:"person_name,omitempty"`
}
