package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/tikit/helpdesk-backend/internal/config"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// SMTPSender is a secondary adapter delivering plain-text notification
// emails through an SMTP relay. It implements ports.MailSender.
type SMTPSender struct {
	cfg    config.MailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *slog.Logger
}

// NewSMTPSender creates a new SMTP sender.
func NewSMTPSender(cfg config.MailConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: logger.With("component", "smtp_sender"),
	}
}

var _ ports.MailSender = (*SMTPSender)(nil)

// Send delivers one message. The context is consulted before dialing; the
// smtp package itself does not support cancellation mid-send.
func (s *SMTPSender) Send(ctx context.Context, email ports.OutboundEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if email.To == "" {
		return fmt.Errorf("outbound email has no recipient")
	}

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	msg := buildMessage(s.cfg.FromAddress, email)

	if err := s.send(addr, auth, s.cfg.FromAddress, []string{email.To}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}

	s.logger.DebugContext(ctx, "email sent", "to", email.To, "subject", email.Subject)
	return nil
}

// buildMessage renders the RFC 5322 wire form of the email.
func buildMessage(from string, email ports.OutboundEmail) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
