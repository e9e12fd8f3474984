package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks an externally generated document.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentGenerating DocumentStatus = "generating"
	DocumentReady      DocumentStatus = "ready"
	DocumentFailed     DocumentStatus = "failed"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentGenerating, DocumentReady, DocumentFailed:
		return true
	}
	return false
}

// Document is a generated report whose bytes live in object storage.
type Document struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	PersonID       *uuid.UUID     `json:"person_id,omitempty"`
	Title          string         `json:"title"`
	Kind           string         `json:"kind"`
	StoragePath    *string        `json:"storage_path,omitempty"`
	Status         DocumentStatus `json:"status"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedBy      *uuid.UUID     `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
