package enrollments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/notify"
	"github.com/hkf/crm/internal/realtime"
)

// Store is the enrollment persistence the service needs; *Repository satisfies it.
type Store interface {
	List(ctx context.Context, orgID uuid.UUID, f models.EnrollmentFilter) ([]*models.Enrollment, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Enrollment, error)
	Create(ctx context.Context, orgID uuid.UUID, e *models.Enrollment) error
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.EnrollmentStatus) (*models.Enrollment, error)
	RecordDecision(ctx context.Context, orgID, id uuid.UUID, status models.EnrollmentStatus, note *string, at time.Time) (*models.Enrollment, error)
}

// PersonReader loads the person a decision notifies.
type PersonReader interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Person, error)
}

// ProgramReader loads the program an application targets.
type ProgramReader interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Program, error)
}

// CommunicationLog records outbound notifications on the person timeline.
type CommunicationLog interface {
	Create(ctx context.Context, orgID uuid.UUID, c *models.Communication) error
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.CommunicationStatus, sentAt *time.Time, errMsg string) error
}

// DecisionInput is a human accept/reject determination. Decision nil means none was chosen.
type DecisionInput struct {
	Decision *models.Decision
	Note     string
	Notify   bool
}

// NotificationResult reports the notification step independently of the decision write.
type NotificationResult struct {
	Attempted bool   `json:"attempted"`
	Sent      bool   `json:"sent"`
	Skipped   string `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DecisionResult is the committed enrollment plus the notification outcome.
type DecisionResult struct {
	Enrollment   *models.Enrollment `json:"enrollment"`
	Notification NotificationResult `json:"notification"`
}

// Service implements the application and decision workflow.
type Service struct {
	store    Store
	people   PersonReader
	programs ProgramReader
	comms    CommunicationLog
	notifier notify.Notifier
	inv      realtime.Invalidator
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an enrollments service. notifier may be nil, in which case
// notification requests are reported as skipped.
func NewService(store Store, people PersonReader, programs ProgramReader, comms CommunicationLog, notifier notify.Notifier, inv realtime.Invalidator, logger *zap.Logger) *Service {
	if inv == nil {
		inv = realtime.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		people:   people,
		programs: programs,
		comms:    comms,
		notifier: notifier,
		inv:      inv,
		logger:   logger,
		now:      time.Now,
	}
}

// Apply creates an application for a person. The program must be active and every
// required application field must be answered.
func (s *Service) Apply(ctx context.Context, orgID uuid.UUID, e *models.Enrollment) error {
	program, err := s.programs.Get(ctx, orgID, e.ProgramID)
	if err != nil {
		return err
	}
	if !program.IsActive {
		return models.Invalid("program_id", "program is not accepting applications")
	}
	if e.ApplicationData == nil {
		e.ApplicationData = models.Metadata{}
	}
	for _, f := range program.Config.ApplicationFields {
		if !f.Required {
			continue
		}
		if v, ok := e.ApplicationData[f.ID]; !ok || isBlank(v) {
			return models.Invalid("application_data."+f.ID, "%s is required", f.Label)
		}
	}
	if e.Status == "" {
		e.Status = models.EnrollmentApplied
	}
	if !e.Status.Valid() {
		return models.Invalid("status", "unknown status %q", e.Status)
	}
	e.ProgramName = program.Name
	if err := s.store.Create(ctx, orgID, e); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, orgID, realtime.Mutation{Entity: realtime.EntityEnrollment, Op: realtime.OpCreated, ID: e.ID, PersonID: e.PersonID})
	return nil
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// ChangeStatus moves an enrollment along the status graph.
func (s *Service) ChangeStatus(ctx context.Context, orgID, id uuid.UUID, next models.EnrollmentStatus) (*models.Enrollment, error) {
	if !next.Valid() {
		return nil, models.Invalid("status", "unknown status %q", next)
	}
	cur, err := s.store.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !cur.Status.CanTransition(next) {
		return nil, fmt.Errorf("%s -> %s: %w", cur.Status, next, models.ErrInvalidTransition)
	}
	updated, err := s.store.UpdateStatus(ctx, orgID, id, next)
	if err != nil {
		return nil, err
	}
	updated.PersonName, updated.ProgramName = cur.PersonName, cur.ProgramName
	s.inv.Invalidate(ctx, orgID, realtime.Mutation{Entity: realtime.EntityEnrollment, Op: realtime.OpUpdated, ID: id, PersonID: updated.PersonID})
	return updated, nil
}

// RecordDecision writes the decision, then optionally notifies the person. The two steps are
// independent: a notification failure is logged and reported in the result, never returned,
// and never undoes the decision.
func (s *Service) RecordDecision(ctx context.Context, orgID, enrollmentID uuid.UUID, in DecisionInput) (*DecisionResult, error) {
	if in.Decision == nil {
		return nil, models.Invalid("decision", "is required")
	}
	status, ok := in.Decision.Status()
	if !ok {
		return nil, models.Invalid("decision", "must be accept or reject")
	}
	cur, err := s.store.Get(ctx, orgID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !cur.Status.CanTransition(status) {
		return nil, fmt.Errorf("%s -> %s: %w", cur.Status, status, models.ErrInvalidTransition)
	}

	var note *string
	if n := strings.TrimSpace(in.Note); n != "" {
		note = &n
	}
	updated, err := s.store.RecordDecision(ctx, orgID, enrollmentID, status, note, s.now().UTC())
	if err != nil {
		return nil, err
	}
	updated.PersonName, updated.ProgramName = cur.PersonName, cur.ProgramName
	s.inv.Invalidate(ctx, orgID, realtime.Mutation{
		Entity: realtime.EntityEnrollment, Op: realtime.OpUpdated, ID: enrollmentID, PersonID: updated.PersonID,
	})

	result := &DecisionResult{Enrollment: updated}
	if in.Notify {
		result.Notification = s.notify(ctx, orgID, updated, *in.Decision, in.Note)
	}
	return result, nil
}

func (s *Service) notify(ctx context.Context, orgID uuid.UUID, e *models.Enrollment, d models.Decision, note string) NotificationResult {
	log := s.logger.With(zap.String("organization_id", orgID.String()), zap.String("enrollment_id", e.ID.String()))
	if s.notifier == nil {
		return NotificationResult{Skipped: "notifications are not configured"}
	}
	person, err := s.people.Get(ctx, orgID, e.PersonID)
	if err != nil {
		log.Warn("decision notification: load person failed", zap.Error(err))
		return NotificationResult{Error: err.Error()}
	}
	if !person.HasEmail() {
		return NotificationResult{Skipped: "person has no email"}
	}

	subject, body := notify.DecisionMessage(person.Name, e.ProgramName, d, strings.TrimSpace(note))
	msg := notify.Message{
		OrganizationID: orgID,
		PersonID:       person.ID,
		EnrollmentID:   &e.ID,
		Email:          *person.Email,
		Name:           person.Name,
		Subject:        subject,
		Body:           body,
	}

	var comm *models.Communication
	if s.comms != nil {
		comm = &models.Communication{
			PersonID:  person.ID,
			Channel:   models.ChannelEmail,
			Direction: models.DirectionOutbound,
			Status:    models.CommunicationQueued,
			Subject:   subject,
			Body:      body,
		}
		if err := s.comms.Create(ctx, orgID, comm); err != nil {
			log.Warn("decision notification: log communication failed", zap.Error(err))
			comm = nil
		} else {
			msg.CommunicationID = &comm.ID
		}
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		log.Error("decision notification failed", zap.Error(err))
		if comm != nil {
			if uerr := s.comms.UpdateStatus(ctx, orgID, comm.ID, models.CommunicationFailed, nil, err.Error()); uerr != nil {
				log.Warn("decision notification: mark communication failed", zap.Error(uerr))
			}
		}
		return NotificationResult{Attempted: true, Error: err.Error()}
	}
	if comm != nil {
		s.inv.Invalidate(ctx, orgID, realtime.Mutation{Entity: realtime.EntityCommunication, Op: realtime.OpCreated, ID: comm.ID, PersonID: person.ID})
	}
	return NotificationResult{Attempted: true, Sent: true}
}
