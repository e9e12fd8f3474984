package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles in an AI conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation is a thread with the external AI assistant.
type Conversation struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	UserID         uuid.UUID  `json:"user_id"`
	PersonID       *uuid.UUID `json:"person_id,omitempty"`
	Title          string     `json:"title"`
	Context        Metadata   `json:"context"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Messages []ConversationMessage `json:"messages,omitempty"`
}

// ConversationMessage is one turn; rows cascade when the conversation is deleted.
type ConversationMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidRole reports whether r is a known message role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}
