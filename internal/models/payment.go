package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// Payment is money owed or paid by a person, in integer minor units.
type Payment struct {
	ID             uuid.UUID     `json:"id"`
	OrganizationID uuid.UUID     `json:"organization_id"`
	PersonID       uuid.UUID     `json:"person_id"`
	ProgramID      *uuid.UUID    `json:"program_id,omitempty"`
	EnrollmentID   *uuid.UUID    `json:"enrollment_id,omitempty"`
	Amount         int64         `json:"amount"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	Provider       string        `json:"provider,omitempty"`
	ExternalID     string        `json:"external_id,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Validate checks a payment before insert.
func (p *Payment) Validate() error {
	if p.PersonID == uuid.Nil {
		return Invalid("person_id", "is required")
	}
	if p.Amount < 0 {
		return Invalid("amount", "must not be negative")
	}
	if p.Currency == "" {
		p.Currency = "ILS"
	}
	if len(p.Currency) != 3 {
		return Invalid("currency", "must be a 3-letter code")
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if !p.Status.Valid() {
		return Invalid("status", "unknown status %q", p.Status)
	}
	return nil
}
