package models

import (
	"time"

	"github.com/google/uuid"
)

// Urgency ranks how quickly an escalation needs a human.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// EscalationStatus is the handling state of an escalation.
type EscalationStatus string

const (
	EscalationOpen       EscalationStatus = "open"
	EscalationInProgress EscalationStatus = "in_progress"
	EscalationResolved   EscalationStatus = "resolved"
	EscalationDismissed  EscalationStatus = "dismissed"
)

// Valid reports whether s is a known escalation status.
func (s EscalationStatus) Valid() bool {
	switch s {
	case EscalationOpen, EscalationInProgress, EscalationResolved, EscalationDismissed:
		return true
	}
	return false
}

// Closed reports whether the escalation needs no further handling.
func (s EscalationStatus) Closed() bool {
	return s == EscalationResolved || s == EscalationDismissed
}

// Escalation is a case routed from automated handling to human review.
type Escalation struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	PersonID       *uuid.UUID       `json:"person_id,omitempty"`
	EnrollmentID   *uuid.UUID       `json:"enrollment_id,omitempty"`
	InterviewID    *uuid.UUID       `json:"interview_id,omitempty"`
	Reason         string           `json:"reason"`
	Urgency        Urgency          `json:"urgency"`
	Status         EscalationStatus `json:"status"`
	AssignedTo     *uuid.UUID       `json:"assigned_to,omitempty"`
	AssignedAt     *time.Time       `json:"assigned_at,omitempty"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`
	Resolution     string           `json:"resolution,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Validate checks an escalation before insert.
func (e *Escalation) Validate() error {
	if e.Reason == "" {
		return Invalid("reason", "is required")
	}
	if e.Urgency == "" {
		e.Urgency = UrgencyMedium
	}
	if !e.Urgency.Valid() {
		return Invalid("urgency", "unknown urgency %q", e.Urgency)
	}
	if e.Status == "" {
		e.Status = EscalationOpen
	}
	if !e.Status.Valid() {
		return Invalid("status", "unknown status %q", e.Status)
	}
	return nil
}
