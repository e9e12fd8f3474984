package realtime

import (
	"context"

	"github.com/google/uuid"
)

// Entity names the kind of row a mutation touched.
type Entity string

const (
	EntityPerson        Entity = "person"
	EntityEnrollment    Entity = "enrollment"
	EntityInterview     Entity = "interview"
	EntityPayment       Entity = "payment"
	EntityEvent         Entity = "event"
	EntityRegistration  Entity = "registration"
	EntityDocument      Entity = "document"
	EntityProgram       Entity = "program"
	EntityCohort        Entity = "cohort"
	EntityEscalation    Entity = "escalation"
	EntityCommunication Entity = "communication"
	EntityConversation  Entity = "conversation"
)

// Op is the kind of write.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Mutation describes a committed write. PersonID and ParentID are optional:
// PersonID is the person the row belongs to, ParentID the owning event or program.
type Mutation struct {
	Entity   Entity
	Op       Op
	ID       uuid.UUID
	PersonID uuid.UUID
	ParentID uuid.UUID
}

// InvalidatePayload is the body of an "invalidate" websocket event.
type InvalidatePayload struct {
	Keys []string `json:"keys"`
}

// Invalidator publishes cache invalidations after successful writes.
type Invalidator interface {
	Invalidate(ctx context.Context, orgID uuid.UUID, m Mutation)
}

// Nop discards invalidations.
type Nop struct{}

// Invalidate does nothing.
func (Nop) Invalidate(context.Context, uuid.UUID, Mutation) {}

// Dashboard statistics depend on people, enrollments, interviews and payments.
const keyDashboard = "dashboard:stats"

// KeysFor returns the client cache keys a mutation makes stale.
func KeysFor(m Mutation) []string {
	var keys []string
	add := func(k ...string) { keys = append(keys, k...) }
	personKeys := func() {
		if m.PersonID != uuid.Nil {
			add("person:"+m.PersonID.String(), "enrollments:person:"+m.PersonID.String())
		}
	}

	switch m.Entity {
	case EntityPerson:
		add("people", "person:"+m.ID.String(), "enrollments:person:"+m.ID.String(), keyDashboard)
		add("communications:person:" + m.ID.String())
	case EntityEnrollment:
		add("enrollments", "people")
		personKeys()
		add(keyDashboard)
	case EntityInterview:
		add("interviews", "interview:"+m.ID.String())
		personKeys()
		add(keyDashboard)
	case EntityPayment:
		add("payments")
		personKeys()
		add(keyDashboard)
	case EntityEvent:
		add("events", "event:"+m.ID.String())
		if m.Op == OpDeleted {
			add("event-registrations:"+m.ID.String(), keyDashboard)
		}
	case EntityRegistration:
		add("event-registrations:"+m.ParentID.String(), "event:"+m.ParentID.String(), "events")
	case EntityDocument:
		add("documents", "document:"+m.ID.String())
	case EntityProgram:
		add("programs", "program:"+m.ID.String())
	case EntityCohort:
		add("cohorts:" + m.ParentID.String())
	case EntityEscalation:
		add("escalations")
	case EntityCommunication:
		if m.PersonID != uuid.Nil {
			add("communications:person:" + m.PersonID.String())
		}
	case EntityConversation:
		add("conversations", "conversation:"+m.ID.String())
	}
	return keys
}
