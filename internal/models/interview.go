package models

import (
	"time"

	"github.com/google/uuid"
)

// InterviewStatus is the scheduling state of an interview.
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
	InterviewNoShow    InterviewStatus = "no_show"
)

// Valid reports whether s is a known interview status.
func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewScheduled, InterviewCompleted, InterviewCancelled, InterviewNoShow:
		return true
	}
	return false
}

// InterviewOutcome is the interviewer's verdict; nil means not yet recorded.
type InterviewOutcome string

const (
	OutcomePassed          InterviewOutcome = "passed"
	OutcomeFailed          InterviewOutcome = "failed"
	OutcomePendingDecision InterviewOutcome = "pending_decision"
)

// Valid reports whether o is a known outcome.
func (o InterviewOutcome) Valid() bool {
	switch o {
	case OutcomePassed, OutcomeFailed, OutcomePendingDecision:
		return true
	}
	return false
}

// InterviewerNotes is the fixed shape of interviews.interviewer_notes.
type InterviewerNotes struct {
	Strengths      string `json:"strengths,omitempty"`
	Concerns       string `json:"concerns,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	Score          *int   `json:"score,omitempty"`
}

// Interview is a scheduled conversation with a candidate.
type Interview struct {
	ID               uuid.UUID         `json:"id"`
	OrganizationID   uuid.UUID         `json:"organization_id"`
	PersonID         uuid.UUID         `json:"person_id"`
	ProgramID        uuid.UUID         `json:"program_id"`
	EnrollmentID     *uuid.UUID        `json:"enrollment_id,omitempty"`
	ScheduledAt      time.Time         `json:"scheduled_at"`
	DurationMinutes  int               `json:"duration_minutes"`
	Location         string            `json:"location"`
	Status           InterviewStatus   `json:"status"`
	Outcome          *InterviewOutcome `json:"outcome"`
	InterviewerNotes InterviewerNotes  `json:"interviewer_notes"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	PersonName string `json:"person_name,omitempty"`
}

// Validate checks an interview before insert or update.
func (i *Interview) Validate() error {
	if i.PersonID == uuid.Nil {
		return Invalid("person_id", "is required")
	}
	if i.ProgramID == uuid.Nil {
		return Invalid("program_id", "is required")
	}
	if i.ScheduledAt.IsZero() {
		return Invalid("scheduled_at", "is required")
	}
	if i.DurationMinutes < 0 {
		return Invalid("duration_minutes", "must not be negative")
	}
	if i.DurationMinutes == 0 {
		i.DurationMinutes = 30
	}
	if i.Status == "" {
		i.Status = InterviewScheduled
	}
	if !i.Status.Valid() {
		return Invalid("status", "unknown status %q", i.Status)
	}
	if i.Outcome != nil && !i.Outcome.Valid() {
		return Invalid("outcome", "unknown outcome %q", *i.Outcome)
	}
	if s := i.InterviewerNotes.Score; s != nil && (*s < 1 || *s > 10) {
		return Invalid("interviewer_notes.score", "must be between 1 and 10")
	}
	return nil
}

// InterviewFilter narrows interview listings.
type InterviewFilter struct {
	Status InterviewStatus
	From   *time.Time
	To     *time.Time
}
