package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentStatus_Valid(t *testing.T) {
	for _, s := range EnrollmentStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.Len(t, EnrollmentStatuses, 7)
	assert.False(t, EnrollmentStatus("pending").Valid())
	assert.False(t, EnrollmentStatus("").Valid())
}

func TestEnrollmentStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to EnrollmentStatus
		ok       bool
	}{
		{EnrollmentApplied, EnrollmentAccepted, true},
		{EnrollmentApplied, EnrollmentInterviewing, true},
		{EnrollmentInterviewing, EnrollmentRejected, true},
		{EnrollmentAccepted, EnrollmentAccepted, true},
		{EnrollmentAccepted, EnrollmentRejected, true},
		{EnrollmentRejected, EnrollmentAccepted, true},
		{EnrollmentAccepted, EnrollmentEnrolled, true},
		{EnrollmentEnrolled, EnrollmentCompleted, true},
		{EnrollmentApplied, EnrollmentCompleted, false},
		{EnrollmentCompleted, EnrollmentDropped, false},
		{EnrollmentDropped, EnrollmentApplied, false},
		{EnrollmentRejected, EnrollmentEnrolled, false},
		{EnrollmentApplied, EnrollmentStatus("bogus"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestDecision_Status(t *testing.T) {
	s, ok := DecisionAccept.Status()
	require.True(t, ok)
	assert.Equal(t, EnrollmentAccepted, s)

	s, ok = DecisionReject.Status()
	require.True(t, ok)
	assert.Equal(t, EnrollmentRejected, s)

	_, ok = Decision("maybe").Status()
	assert.False(t, ok)
}

func TestPerson_Validate(t *testing.T) {
	p := &Person{}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	p = &Person{Name: "Dana"}
	require.NoError(t, p.Validate())
	assert.Equal(t, PersonActive, p.Status)
	assert.NotNil(t, p.Tags)
	assert.NotNil(t, p.Metadata)

	p = &Person{Name: "Dana", Status: "deleted"}
	assert.Error(t, p.Validate())
}

func TestPerson_HasEmail(t *testing.T) {
	empty := ""
	email := "dana@example.com"
	assert.False(t, (&Person{}).HasEmail())
	assert.False(t, (&Person{Email: &empty}).HasEmail())
	assert.True(t, (&Person{Email: &email}).HasEmail())
}

func TestInterview_Validate(t *testing.T) {
	i := &Interview{PersonID: uuid.New(), ProgramID: uuid.New()}
	assert.Error(t, i.Validate(), "scheduled_at required")

	i.ScheduledAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, i.Validate())
	assert.Equal(t, InterviewScheduled, i.Status)
	assert.Equal(t, 30, i.DurationMinutes)

	bad := InterviewOutcome("great")
	i.Outcome = &bad
	assert.Error(t, i.Validate())

	score := 11
	i.Outcome = nil
	i.InterviewerNotes.Score = &score
	assert.Error(t, i.Validate())
}

func TestPayment_Validate(t *testing.T) {
	p := &Payment{PersonID: uuid.New(), Amount: 150000}
	require.NoError(t, p.Validate())
	assert.Equal(t, "ILS", p.Currency)
	assert.Equal(t, PaymentPending, p.Status)

	p = &Payment{PersonID: uuid.New(), Amount: -1}
	assert.Error(t, p.Validate())
}

func TestEvent_HasRoom(t *testing.T) {
	e := &Event{RegistrationCount: 10}
	assert.True(t, e.HasRoom())

	capacity := 10
	e.Capacity = &capacity
	assert.False(t, e.HasRoom())

	e.RegistrationCount = 9
	assert.True(t, e.HasRoom())
}

func TestEscalation_Validate(t *testing.T) {
	e := &Escalation{Reason: "asked for a human"}
	require.NoError(t, e.Validate())
	assert.Equal(t, UrgencyMedium, e.Urgency)
	assert.Equal(t, EscalationOpen, e.Status)
	assert.False(t, e.Status.Closed())
	assert.True(t, EscalationDismissed.Closed())
}

func TestMetadata_String(t *testing.T) {
	var m Metadata
	assert.Equal(t, "", m.String(MetaCity))
	m = Metadata{MetaCity: "Haifa", "age": 30}
	assert.Equal(t, "Haifa", m.String(MetaCity))
	assert.Equal(t, "", m.String("age"))
}
