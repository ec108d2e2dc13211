// Package notify sends operational email to staff. Delivery is best effort:
// callers fire notifications after their transaction commits and a failed
// send is logged, never surfaced to the API caller.
package notify

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier delivers a message to a set of recipients
type Notifier interface {
	Send(to []string, subject, body string) error
}

// Mailer is an SMTP-backed Notifier
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func NewMailer(host string, port int, username, password, from string, logger *zap.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

func (m *Mailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// NopNotifier discards all messages. Used when SMTP is not configured.
type NopNotifier struct{}

func (NopNotifier) Send(to []string, subject, body string) error { return nil }
