package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"artcritic/internal/config"
)

var (
	// ErrNotConfigured means the SMTP settings are missing; dependent routes
	// answer with a fixed error instead of attempting a send.
	ErrNotConfigured = errors.New("mail service not configured")
	// ErrSendFailed wraps any transport failure. The cause is logged
	// server-side and never shown to the client.
	ErrSendFailed = errors.New("mail send failed")
)

// Bodies are rendered with html/template so user-supplied text is escaped
// before it reaches the message markup.
var (
	preregisterTmpl = template.Must(template.New("preregister").Parse(
		`<p>New pre-registration for ArtCritic.</p>
<p>Email: <strong>{{.Email}}</strong></p>`))

	contactTmpl = template.Must(template.New("contact").Parse(
		`<p>New contact message via ArtCritic.</p>
<p>From: <strong>{{.Name}}</strong> ({{.Email}})</p>
<blockquote>{{.Message}}</blockquote>`))
)

// Mailer sends the two notification kinds to the configured recipient over
// SMTP. Each call issues exactly one send.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	recipient string
	log       zerolog.Logger
}

// NewMailer builds a Mailer from config. A Mailer without SMTP settings is
// still returned; its send methods report ErrNotConfigured.
func NewMailer(cfg *config.Config, logger zerolog.Logger) *Mailer {
	m := &Mailer{log: logger}
	if !cfg.SMTPConfigured() {
		return m
	}
	port := cfg.SMTP.Port
	if port == 0 {
		port = 587
	}
	m.dialer = gomail.NewDialer(cfg.SMTP.Host, port, cfg.SMTP.Username, cfg.SMTP.Password)
	m.from = cfg.SMTP.From
	m.recipient = cfg.SMTP.Recipient
	return m
}

// Configured reports whether sends can be attempted.
func (m *Mailer) Configured() bool {
	return m != nil && m.dialer != nil
}

// Preregistration notifies the recipient that an email joined the waitlist.
func (m *Mailer) Preregistration(ctx context.Context, email string) error {
	body, err := renderPreregisterBody(email)
	if err != nil {
		return fmt.Errorf("render preregistration body: %w", err)
	}
	return m.send(ctx, "ArtCritic pre-registration", body)
}

// Contact forwards a contact-form message to the recipient.
func (m *Mailer) Contact(ctx context.Context, name, email, message string) error {
	body, err := renderContactBody(name, email, message)
	if err != nil {
		return fmt.Errorf("render contact body: %w", err)
	}
	return m.send(ctx, "ArtCritic contact message", body)
}

func (m *Mailer) send(ctx context.Context, subject, body string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Error().Err(err).Str("subject", subject).Msg("smtp send failed")
		return fmt.Errorf("%w: %s", ErrSendFailed, subject)
	}
	return nil
}

func renderPreregisterBody(email string) (string, error) {
	var buf bytes.Buffer
	err := preregisterTmpl.Execute(&buf, struct{ Email string }{email})
	return buf.String(), err
}

func renderContactBody(name, email, message string) (string, error) {
	var buf bytes.Buffer
	err := contactTmpl.Execute(&buf, struct{ Name, Email, Message string }{name, email, message})
	return buf.String(), err
}
