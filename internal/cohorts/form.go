package cohorts

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hkf/crm/internal/models"
)

// Form is the cohort editor payload. Dates and max participants arrive as raw strings.
type Form struct {
	ProgramID       uuid.UUID `json:"program_id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	MaxParticipants string    `json:"max_participants"`
}

// ToCohort validates the form and builds the cohort to persist.
// Blank dates and max participants become nil; blank status becomes draft.
func (f Form) ToCohort() (*models.Cohort, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, models.Invalid("name", "is required")
	}
	if f.ProgramID == uuid.Nil {
		return nil, models.Invalid("program_id", "is required")
	}
	status := models.CohortStatus(strings.TrimSpace(f.Status))
	if status == "" {
		status = models.CohortDraft
	}
	if !status.Valid() {
		return nil, models.Invalid("status", "unknown status %q", status)
	}
	start, err := models.ParseOptionalDate("start_date", f.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := models.ParseOptionalDate("end_date", f.EndDate)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, models.Invalid("end_date", "must not be before start_date")
	}
	max, err := models.ParseOptionalInt("max_participants", f.MaxParticipants)
	if err != nil {
		return nil, err
	}
	return &models.Cohort{
		ProgramID:       f.ProgramID,
		Name:            name,
		Status:          status,
		StartDate:       start,
		EndDate:         end,
		MaxParticipants: max,
	}, nil
}
