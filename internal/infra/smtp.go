package infra

import (
	"fmt"
	"net/smtp"
	"time"

	"platepos/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending notification emails with an
// optional attachment. Sends go through a circuit breaker so a dead relay
// fast-fails instead of hanging every worker on SMTP timeouts.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	breaker  *Breaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  NewBreaker(5, 2, 60*time.Second),
	}
}

// BreakerState exposes the relay breaker state for the health endpoint.
func (m *Mailer) BreakerState() BreakerState {
	return m.breaker.State()
}

// Send delivers a plain-text email, attaching the file at attachPath when set.
func (m *Mailer) Send(to, subject, body, attachPath string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachPath != "" {
		if _, err := e.AttachFile(attachPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return m.breaker.Execute(func() error {
		return e.Send(m.addr, auth)
	})
}
