package models

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus is the lifecycle state of an application/membership.
type EnrollmentStatus string

const (
	EnrollmentApplied      EnrollmentStatus = "applied"
	EnrollmentInterviewing EnrollmentStatus = "interviewing"
	EnrollmentAccepted     EnrollmentStatus = "accepted"
	EnrollmentRejected     EnrollmentStatus = "rejected"
	EnrollmentEnrolled     EnrollmentStatus = "enrolled"
	EnrollmentCompleted    EnrollmentStatus = "completed"
	EnrollmentDropped      EnrollmentStatus = "dropped"
)

// EnrollmentStatuses lists every persistable enrollment status.
var EnrollmentStatuses = []EnrollmentStatus{
	EnrollmentApplied, EnrollmentInterviewing, EnrollmentAccepted, EnrollmentRejected,
	EnrollmentEnrolled, EnrollmentCompleted, EnrollmentDropped,
}

// Valid reports whether s is one of the seven enrollment statuses.
func (s EnrollmentStatus) Valid() bool {
	for _, v := range EnrollmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// enrollmentTransitions maps a status to the statuses it may move to.
// completed and dropped are terminal.
var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentApplied:      {EnrollmentInterviewing, EnrollmentAccepted, EnrollmentRejected, EnrollmentDropped},
	EnrollmentInterviewing: {EnrollmentAccepted, EnrollmentRejected, EnrollmentDropped},
	EnrollmentAccepted:     {EnrollmentEnrolled, EnrollmentRejected, EnrollmentDropped},
	EnrollmentRejected:     {EnrollmentAccepted},
	EnrollmentEnrolled:     {EnrollmentCompleted, EnrollmentDropped},
}

// CanTransition reports whether an enrollment may move from s to next.
// Re-applying the current status is always allowed.
func (s EnrollmentStatus) CanTransition(next EnrollmentStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range enrollmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Decision is the human accept/reject determination on an application.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Status returns the enrollment status a decision records.
func (d Decision) Status() (EnrollmentStatus, bool) {
	switch d {
	case DecisionAccept:
		return EnrollmentAccepted, true
	case DecisionReject:
		return EnrollmentRejected, true
	}
	return "", false
}

// Enrollment links one person to one program, optionally a cohort.
type Enrollment struct {
	ID              uuid.UUID        `json:"id"`
	OrganizationID  uuid.UUID        `json:"organization_id"`
	PersonID        uuid.UUID        `json:"person_id"`
	ProgramID       uuid.UUID        `json:"program_id"`
	CohortID        *uuid.UUID       `json:"cohort_id,omitempty"`
	Status          EnrollmentStatus `json:"status"`
	ApplicationData Metadata         `json:"application_data"`
	DecisionNote    *string          `json:"decision_note,omitempty"`
	DecidedAt       *time.Time       `json:"decided_at,omitempty"`
	AppliedAt       time.Time        `json:"applied_at"`
	EnrolledAt      *time.Time       `json:"enrolled_at,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Joined for listings; not persisted on enrollments.
	PersonName  string `json:"person_name,omitempty"`
	ProgramName string `json:"program_name,omitempty"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	Status    EnrollmentStatus
	ProgramID *uuid.UUID
	PersonID  *uuid.UUID
	Limit     int
}
