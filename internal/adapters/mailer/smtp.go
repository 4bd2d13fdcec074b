package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/bugtrack/core/internal/infrastructure/config"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// SMTPMailer sends notification mail through a plain SMTP relay
type SMTPMailer struct {
	cfg    *config.SMTPConfig
	logger *logger.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg *config.SMTPConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: log}
}

// Send delivers a single plain-text message
func (m *SMTPMailer) Send(to, subject, body string) error {
	if !m.cfg.Enabled {
		m.logger.Debugw("Mail delivery disabled, skipping", "to", to, "subject", subject)
		return nil
	}

	msg := buildMessage(m.cfg.From, to, subject, body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(m.cfg.Addr(), auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// NopMailer discards all mail, used when delivery is not configured
type NopMailer struct{}

// Send implements ports.Mailer
func (NopMailer) Send(string, string, string) error { return nil }

var _ ports.Mailer = (*SMTPMailer)(nil)
var _ ports.Mailer = NopMailer{}
