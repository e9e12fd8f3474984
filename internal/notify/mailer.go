package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/hkf/crm/config"
)

// Mailer sends plain-text email through the configured SMTP relay.
type Mailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewMailer creates a mailer from email configuration.
func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

// Deliver sends one message. gomail has no context support, so ctx is only checked before dialing.
func (m *Mailer) Deliver(ctx context.Context, to, name, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := m.compose(to, name, subject, body)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) compose(to, name, subject, body string) *gomail.Message {
	msg := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetAddressHeader("To", to, name)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}
