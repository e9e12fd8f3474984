// Package seed loads YAML fixtures into a tenant and removes a tenant's data again.
package seed

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hkf/crm/internal/models"
)

// Fixture is a tenant's worth of test data. People are referenced by email and
// programs by name from the sections that follow them.
type Fixture struct {
	Organization *OrganizationFixture `yaml:"organization,omitempty"`
	Programs     []ProgramFixture     `yaml:"programs"`
	People       []PersonFixture      `yaml:"people"`
	Enrollments  []EnrollmentFixture  `yaml:"enrollments"`
	Events       []EventFixture       `yaml:"events"`
}

// OrganizationFixture creates the tenant when no --org is given.
type OrganizationFixture struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type ProgramFixture struct {
	Name              string `yaml:"name"`
	Description       string `yaml:"description"`
	Type              string `yaml:"type"`
	RequiresInterview bool   `yaml:"requires_interview"`
	RequiresPayment   bool   `yaml:"requires_payment"`
	PaymentAmount     *int64 `yaml:"payment_amount"`
	Currency          string `yaml:"currency"`
	MaxParticipants   *int   `yaml:"max_participants"`
}

type PersonFixture struct {
	Name     string                 `yaml:"name"`
	Email    string                 `yaml:"email"`
	Phone    string                 `yaml:"phone"`
	Status   string                 `yaml:"status"`
	Tags     []string               `yaml:"tags"`
	Metadata map[string]interface{} `yaml:"metadata"`
}

type EnrollmentFixture struct {
	Person  string                 `yaml:"person"`  // email
	Program string                 `yaml:"program"` // name
	Status  string                 `yaml:"status"`
	Data    map[string]interface{} `yaml:"application_data"`
}

type EventFixture struct {
	Name     string    `yaml:"name"`
	Location string    `yaml:"location"`
	StartsAt time.Time `yaml:"starts_at"`
	Capacity *int      `yaml:"capacity"`
	Status   string    `yaml:"status"`
}

// Parse decodes a fixture and checks its cross references.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) check() error {
	programs := make(map[string]bool, len(f.Programs))
	for i, p := range f.Programs {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("programs[%d]: name is required", i)
		}
		if programs[p.Name] {
			return fmt.Errorf("programs[%d]: duplicate name %q", i, p.Name)
		}
		programs[p.Name] = true
	}
	people := make(map[string]bool, len(f.People))
	for i, p := range f.People {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("people[%d]: name is required", i)
		}
		if p.Status != "" && !models.PersonStatus(p.Status).Valid() {
			return fmt.Errorf("people[%d]: unknown status %q", i, p.Status)
		}
		if p.Email != "" {
			key := strings.ToLower(p.Email)
			if people[key] {
				return fmt.Errorf("people[%d]: duplicate email %q", i, p.Email)
			}
			people[key] = true
		}
	}
	for i, e := range f.Enrollments {
		if !people[strings.ToLower(e.Person)] {
			return fmt.Errorf("enrollments[%d]: unknown person %q", i, e.Person)
		}
		if !programs[e.Program] {
			return fmt.Errorf("enrollments[%d]: unknown program %q", i, e.Program)
		}
		if e.Status != "" && !models.EnrollmentStatus(e.Status).Valid() {
			return fmt.Errorf("enrollments[%d]: unknown status %q", i, e.Status)
		}
	}
	for i, e := range f.Events {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("events[%d]: name is required", i)
		}
		if e.StartsAt.IsZero() {
			return fmt.Errorf("events[%d]: starts_at is required", i)
		}
		if e.Status != "" && !models.EventStatus(e.Status).Valid() {
			return fmt.Errorf("events[%d]: unknown status %q", i, e.Status)
		}
	}
	return nil
}
