package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the medium a communication went through.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelPhone    Channel = "phone"
	ChannelInApp    Channel = "in_app"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp, ChannelSMS, ChannelPhone, ChannelInApp:
		return true
	}
	return false
}

// Direction tells whether the organization sent or received the message.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// CommunicationStatus is the delivery state of a communication.
type CommunicationStatus string

const (
	CommunicationQueued    CommunicationStatus = "queued"
	CommunicationSent      CommunicationStatus = "sent"
	CommunicationDelivered CommunicationStatus = "delivered"
	CommunicationFailed    CommunicationStatus = "failed"
	CommunicationBounced   CommunicationStatus = "bounced"
)

// Valid reports whether s is a known communication status.
func (s CommunicationStatus) Valid() bool {
	switch s {
	case CommunicationQueued, CommunicationSent, CommunicationDelivered, CommunicationFailed, CommunicationBounced:
		return true
	}
	return false
}

// Communication is one message exchanged with a person.
type Communication struct {
	ID             uuid.UUID           `json:"id"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	PersonID       uuid.UUID           `json:"person_id"`
	Channel        Channel             `json:"channel"`
	Direction      Direction           `json:"direction"`
	Status         CommunicationStatus `json:"status"`
	Subject        string              `json:"subject,omitempty"`
	Body           string              `json:"body"`
	SentAt         *time.Time          `json:"sent_at,omitempty"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Validate checks a communication before insert.
func (c *Communication) Validate() error {
	if c.PersonID == uuid.Nil {
		return Invalid("person_id", "is required")
	}
	if !c.Channel.Valid() {
		return Invalid("channel", "unknown channel %q", c.Channel)
	}
	if !c.Direction.Valid() {
		return Invalid("direction", "unknown direction %q", c.Direction)
	}
	if c.Status == "" {
		c.Status = CommunicationQueued
	}
	if !c.Status.Valid() {
		return Invalid("status", "unknown status %q", c.Status)
	}
	return nil
}
