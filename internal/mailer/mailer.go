package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"akun/pkg/rabbitmq"
)

// Mailer sends a message to a single recipient. Failure mode and retry
// policy belong to the implementation, not the caller.
type Mailer interface {
	Send(to, subject, body string) error
}

// QueueMailer hands messages to the RabbitMQ email queue. The actual SMTP
// delivery happens in the consumer worker.
type QueueMailer struct {
	mq *rabbitmq.Client
}

// NewQueueMailer creates a QueueMailer on top of an existing client.
func NewQueueMailer(mq *rabbitmq.Client) *QueueMailer {
	return &QueueMailer{mq: mq}
}

func (m *QueueMailer) Send(to, subject, body string) error {
	return m.mq.PublishEmail(rabbitmq.EmailMessage{
		To:      to,
		Subject: subject,
		Body:    body,
	})
}

// SMTPMailer delivers mail directly over SMTP. Used by the queue consumer.
type SMTPMailer struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewSMTPMailer creates an SMTPMailer. auth may be nil for servers that do
// not require authentication.
func NewSMTPMailer(addr, from string, auth smtp.Auth) *SMTPMailer {
	return &SMTPMailer{
		addr: addr,
		from: from,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Useful for
// local development when no broker or SMTP server is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(to, subject, body string) error {
	log.Printf("[mail] to=%s subject=%q body=%q", to, subject, body)
	return nil
}
