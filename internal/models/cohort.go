package models

import (
	"time"

	"github.com/google/uuid"
)

// CohortStatus is the lifecycle state of a cohort.
type CohortStatus string

const (
	CohortDraft     CohortStatus = "draft"
	CohortOpen      CohortStatus = "open"
	CohortClosed    CohortStatus = "closed"
	CohortCompleted CohortStatus = "completed"
)

// Valid reports whether s is a known cohort status.
func (s CohortStatus) Valid() bool {
	switch s {
	case CohortDraft, CohortOpen, CohortClosed, CohortCompleted:
		return true
	}
	return false
}

// Cohort is a time-bounded group of enrollments inside a program.
type Cohort struct {
	ID              uuid.UUID    `json:"id"`
	OrganizationID  uuid.UUID    `json:"organization_id"`
	ProgramID       uuid.UUID    `json:"program_id"`
	Name            string       `json:"name"`
	StartDate       *time.Time   `json:"start_date"`
	EndDate         *time.Time   `json:"end_date"`
	MaxParticipants *int         `json:"max_participants"`
	Status          CohortStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
