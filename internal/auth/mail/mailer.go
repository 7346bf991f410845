// Package mail delivers MFA verification codes to account addresses.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/veldtlabs/gatehouse/pkg/slogx"
)

// Dispatcher sends a verification code to an address. Delivery is
// fire-and-forget from the flow's perspective; a failed send surfaces as an
// infrastructure error and the caller retries by restarting the flow.
type Dispatcher interface {
	SendCode(ctx context.Context, address, code string) error
}

// SMTPConfig carries the relay settings for the SMTP dispatcher.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP delivers codes through a plain SMTP relay.
type SMTP struct {
	cfg  SMTPConfig
	addr string
}

// NewSMTP returns a Dispatcher backed by the given relay.
func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
}

// SendCode implements Dispatcher.
func (s *SMTP) SendCode(ctx context.Context, address, code string) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := buildMessage(s.cfg.From, address, code)
	if err := smtp.SendMail(s.addr, auth, s.cfg.From, []string{address}, msg); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

func buildMessage(from, to, code string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your verification code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Your verification code is: %s\r\n", code)
	b.WriteString("\r\nIf you did not request this code, you can ignore this message.\r\n")
	return []byte(b.String())
}

// Log is a Dispatcher for dev and test environments. It writes the code to
// the structured log instead of sending anything.
type Log struct{}

// SendCode implements Dispatcher.
func (Log) SendCode(ctx context.Context, address, code string) error {
	slogx.FromContext(ctx).Info("verification code dispatched",
		slog.String("address", address),
		slog.String("code", code),
	)
	return nil
}
