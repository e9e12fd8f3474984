package programs

import (
	"strings"

	"github.com/hkf/crm/internal/models"
)

// Form is the program editor payload. Numeric fields arrive as raw strings;
// blank means "none/unlimited".
type Form struct {
	Name              string                    `json:"name"`
	Description       string                    `json:"description"`
	Type              string                    `json:"type"`
	IsActive          *bool                     `json:"is_active"`
	RequiresInterview bool                      `json:"requires_interview"`
	RequiresPayment   bool                      `json:"requires_payment"`
	PaymentAmount     string                    `json:"payment_amount"`
	Currency          string                    `json:"currency"`
	MaxParticipants   string                    `json:"max_participants"`
	ApplicationFields []models.ApplicationField `json:"application_fields"`
}

// ToProgram validates the form and builds the program to persist.
func (f Form) ToProgram() (*models.Program, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, models.Invalid("name", "is required")
	}
	amount, err := models.ParseMoney("payment_amount", f.PaymentAmount)
	if err != nil {
		return nil, err
	}
	maxParticipants, err := models.ParseOptionalInt("max_participants", f.MaxParticipants)
	if err != nil {
		return nil, err
	}
	if f.RequiresPayment && amount == nil {
		return nil, models.Invalid("payment_amount", "is required when payment is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(f.Currency))
	if amount != nil && currency == "" {
		currency = "ILS"
	}
	if currency != "" && len(currency) != 3 {
		return nil, models.Invalid("currency", "must be a 3-letter code")
	}
	fields := f.ApplicationFields
	if fields == nil {
		fields = []models.ApplicationField{}
	}
	seen := make(map[string]bool, len(fields))
	for _, af := range fields {
		if af.ID == "" || af.Label == "" {
			return nil, models.Invalid("application_fields", "every field needs an id and a label")
		}
		if seen[af.ID] {
			return nil, models.Invalid("application_fields", "duplicate field id %q", af.ID)
		}
		seen[af.ID] = true
	}
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return &models.Program{
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		Type:        strings.TrimSpace(f.Type),
		IsActive:    active,
		Config: models.ProgramConfig{
			RequiresInterview: f.RequiresInterview,
			RequiresPayment:   f.RequiresPayment,
			PaymentAmount:     amount,
			Currency:          currency,
			MaxParticipants:   maxParticipants,
			ApplicationFields: fields,
		},
	}, nil
}
