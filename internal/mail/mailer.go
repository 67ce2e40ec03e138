// Package mail delivers transactional email.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/campus-gigs/marketplace-service/internal/config"
)

var ErrNotConfigured = errors.New("mail transport not configured")

// Mailer sends one message with text and HTML alternatives.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// NewMailer returns an SMTP mailer, or a DisabledMailer when no relay is set.
func NewMailer(cfg config.MailConfig) Mailer {
	if !cfg.Enabled() {
		return DisabledMailer{}
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  config.MailConfig
	send sendFunc
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(m.cfg.SMTPPort))

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	msg := buildMessage(m.cfg.From, to, subject, textBody, htmlBody, uuid.NewString())
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, textBody, htmlBody, boundary string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=\"" + boundary + "\"\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(textBody + "\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(htmlBody + "\r\n")

	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

// DisabledMailer fails every send. Outside production the auth flow then
// returns the code in its response.
type DisabledMailer struct{}

func (DisabledMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	return ErrNotConfigured
}
