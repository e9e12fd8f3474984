package people

import (
	"time"

	"github.com/google/uuid"

	"github.com/hkf/crm/internal/models"
)

// PersonView is a person with their latest enrollment and interview summary.
// Enrollment fields are nil for people who never applied.
type PersonView struct {
	*models.Person
	EnrollmentID     *uuid.UUID               `json:"enrollment_id,omitempty"`
	EnrollmentStatus *models.EnrollmentStatus `json:"enrollment_status,omitempty"`
	ProgramName      *string                  `json:"program_name,omitempty"`
	NextInterviewAt  *time.Time               `json:"next_interview_at,omitempty"`
	InterviewOutcome *models.InterviewOutcome `json:"interview_outcome,omitempty"`
}

// Enrich merges enrollment and interview data onto people. Enrollments and interviews
// for people not in the list are ignored. Output order follows people.
// Scheduled interviews at or before now do not count as the next interview.
func Enrich(people []*models.Person, enrollments []*models.Enrollment, interviews []*models.Interview, now time.Time) []PersonView {
	latest := make(map[uuid.UUID]*models.Enrollment, len(enrollments))
	for _, e := range enrollments {
		cur, ok := latest[e.PersonID]
		if !ok || e.AppliedAt.After(cur.AppliedAt) ||
			(e.AppliedAt.Equal(cur.AppliedAt) && e.CreatedAt.After(cur.CreatedAt)) {
			latest[e.PersonID] = e
		}
	}

	// next: earliest scheduled interview after now; last: most recent one with an outcome.
	next := make(map[uuid.UUID]*models.Interview)
	last := make(map[uuid.UUID]*models.Interview)
	for _, i := range interviews {
		if i.Status == models.InterviewScheduled && i.ScheduledAt.After(now) {
			if cur, ok := next[i.PersonID]; !ok || i.ScheduledAt.Before(cur.ScheduledAt) {
				next[i.PersonID] = i
			}
		}
		if i.Outcome != nil {
			if cur, ok := last[i.PersonID]; !ok || i.ScheduledAt.After(cur.ScheduledAt) {
				last[i.PersonID] = i
			}
		}
	}

	views := make([]PersonView, 0, len(people))
	for _, p := range people {
		v := PersonView{Person: p}
		if e, ok := latest[p.ID]; ok {
			id, status := e.ID, e.Status
			v.EnrollmentID = &id
			v.EnrollmentStatus = &status
			if e.ProgramName != "" {
				name := e.ProgramName
				v.ProgramName = &name
			}
		}
		if i, ok := next[p.ID]; ok {
			at := i.ScheduledAt
			v.NextInterviewAt = &at
		}
		if i, ok := last[p.ID]; ok {
			outcome := *i.Outcome
			v.InterviewOutcome = &outcome
		}
		views = append(views, v)
	}
	return views
}
