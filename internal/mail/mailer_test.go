package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/campus-gigs/marketplace-service/internal/config"
)

func TestNewMailer_DisabledWithoutHost(t *testing.T) {
	m := NewMailer(config.MailConfig{})
	if err := m.Send(context.Background(), "a@b.c", "s", "t", "h"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Send() error = %v, want ErrNotConfigured", err)
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := &SMTPMailer{
		cfg: config.MailConfig{SMTPHost: "smtp.campus.edu", SMTPPort: 587, From: "noreply@campus.edu"},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	if err := m.Send(context.Background(), "jane@campus.edu", "Your code", "123456", "<b>123456</b>"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotAddr != "smtp.campus.edu:587" || gotFrom != "noreply@campus.edu" || len(gotTo) != 1 || gotTo[0] != "jane@campus.edu" {
		t.Errorf("send called with addr=%s from=%s to=%v", gotAddr, gotFrom, gotTo)
	}
	body := string(gotMsg)
	for _, want := range []string{"Subject: Your code", "text/plain", "text/html", "<b>123456</b>"} {
		if !strings.Contains(body, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSMTPMailer_WrapsTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	m := &SMTPMailer{
		cfg:  config.MailConfig{SMTPHost: "smtp", SMTPPort: 25},
		send: func(string, smtp.Auth, string, []string, []byte) error { return boom },
	}
	if err := m.Send(context.Background(), "a@b.c", "s", "t", "h"); !errors.Is(err, boom) {
		t.Errorf("Send() error = %v, want wrapped transport error", err)
	}
}
