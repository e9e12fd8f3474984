package registrations

import "github.com/hkf/crm/internal/models"

// Admission returns the status a new registration gets given the event capacity
// and the seats already taken. A nil capacity is unlimited.
func Admission(capacity *int, taken int) models.RegistrationStatus {
	if capacity != nil && taken >= *capacity {
		return models.RegistrationWaitlisted
	}
	return models.RegistrationRegistered
}

// HoldsSeat reports whether a registration in status s counts against capacity.
func HoldsSeat(s models.RegistrationStatus) bool {
	switch s {
	case models.RegistrationRegistered, models.RegistrationAttended, models.RegistrationNoShow:
		return true
	}
	return false
}

// CanCheckIn reports whether a registration in status s may be marked attended.
func CanCheckIn(s models.RegistrationStatus) bool {
	return s == models.RegistrationRegistered || s == models.RegistrationAttended || s == models.RegistrationNoShow
}

// Open reports whether an event in status s accepts registrations.
func Open(s models.EventStatus) bool {
	return s == models.EventDraft || s == models.EventPublished
}
