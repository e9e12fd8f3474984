// Package notify hands decision notifications to the outbound channel.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hkf/crm/pkg/queue"
)

// ErrNoRecipient is returned when a message has no email address.
var ErrNoRecipient = errors.New("notify: recipient has no email")

// Message is one outbound notification to a person.
type Message struct {
	OrganizationID  uuid.UUID
	PersonID        uuid.UUID
	EnrollmentID    *uuid.UUID
	CommunicationID *uuid.UUID
	Email           string
	Name            string
	Subject         string
	Body            string
}

// Notifier delivers (or schedules delivery of) a message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Enqueuer is the subset of *queue.Queue the queue notifier uses.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error
}

// QueueNotifier schedules messages on the Redis notification queue for the worker.
type QueueNotifier struct {
	q Enqueuer
}

// NewQueueNotifier creates a notifier backed by the job queue.
func NewQueueNotifier(q Enqueuer) *QueueNotifier {
	return &QueueNotifier{q: q}
}

// Send enqueues msg. A nil error means the job was accepted, not that mail was delivered.
func (n *QueueNotifier) Send(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return ErrNoRecipient
	}
	err := n.q.EnqueueNotification(ctx, queue.NotificationPayload{
		OrganizationID:  msg.OrganizationID,
		PersonID:        msg.PersonID,
		EnrollmentID:    msg.EnrollmentID,
		CommunicationID: msg.CommunicationID,
		RecipientEmail:  msg.Email,
		RecipientName:   msg.Name,
		Subject:         msg.Subject,
		Body:            msg.Body,
	})
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}
