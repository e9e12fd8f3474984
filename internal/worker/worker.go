package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/queue"
)

// errNoMailer marks jobs that cannot succeed until SMTP is configured.
var errNoMailer = errors.New("smtp relay not configured")

// Deliverer sends one email.
type Deliverer interface {
	Deliver(ctx context.Context, to, name, subject, body string) error
}

// CommunicationUpdater settles the queued communications row for a job.
type CommunicationUpdater interface {
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.CommunicationStatus, sentAt *time.Time, errMsg string) error
}

// JobQueue is the subset of *queue.Queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
}

// NotificationProcessor processes decision email jobs: send over SMTP, then record the outcome
// on the communications row.
type NotificationProcessor struct {
	mailer  Deliverer
	comms   CommunicationUpdater
	queue   JobQueue
	logger  *zap.Logger
	backoff time.Duration
	poll    time.Duration
	now     func() time.Time
}

// NewNotificationProcessor creates a notification processor. mailer may be nil when SMTP is not configured;
// jobs then fail straight to the communications log without retries.
func NewNotificationProcessor(mailer Deliverer, comms CommunicationUpdater, q JobQueue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{
		mailer:  mailer,
		comms:   comms,
		queue:   q,
		logger:  logger,
		backoff: queue.RetryBackoff,
		poll:    5 * time.Second,
		now:     time.Now,
	}
}

// Process executes one notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeDecisionEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.mailer == nil {
		return errNoMailer
	}
	if err := p.mailer.Deliver(ctx, payload.RecipientEmail, payload.RecipientName, payload.Subject, payload.Body); err != nil {
		return err
	}
	sentAt := p.now().UTC()
	p.settle(ctx, payload, models.CommunicationSent, &sentAt, "")
	p.logger.Info("notification sent",
		zap.String("job_id", job.ID),
		zap.String("organization_id", payload.OrganizationID.String()),
		zap.String("person_id", payload.PersonID.String()))
	return nil
}

// settle updates the communication row when the job carries one. Failures are logged only:
// the email outcome already happened.
func (p *NotificationProcessor) settle(ctx context.Context, payload queue.NotificationPayload, status models.CommunicationStatus, sentAt *time.Time, errMsg string) {
	if payload.CommunicationID == nil || p.comms == nil {
		return
	}
	if err := p.comms.UpdateStatus(ctx, payload.OrganizationID, *payload.CommunicationID, status, sentAt, errMsg); err != nil {
		p.logger.Error("update communication failed", zap.Error(err), zap.String("communication_id", payload.CommunicationID.String()))
	}
}

// handleFailure retries the job, and marks the communication failed once it is dead-lettered.
func (p *NotificationProcessor) handleFailure(ctx context.Context, job *queue.Job, cause error) {
	dead := true
	if !errors.Is(cause, errNoMailer) {
		var err error
		dead, err = p.queue.Retry(ctx, job)
		if err != nil {
			p.logger.Error("retry enqueue failed", zap.Error(err), zap.String("job_id", job.ID))
			return
		}
	}
	if !dead {
		return
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return
	}
	p.settle(ctx, payload, models.CommunicationFailed, nil, cause.Error())
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			p.handleFailure(ctx, job, err)
			p.sleep(ctx)
		}
	}
}

func (p *NotificationProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
