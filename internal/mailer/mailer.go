// Package mailer delivers account emails such as password recovery links.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/emporia/emporia/pkg/model"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender, or a log-only sender when no host is configured.
func New(cfg Config) Sender {
	if cfg.Host == "" {
		slog.Warn("SMTP host not configured, emails will only be logged")
		return &LogSender{logger: slog.Default().With("component", "mailer")}
	}
	return NewSMTPSender(cfg)
}

// LogSender writes messages to the log. Used in development.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Email", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}

// SMTPSender delivers messages through an SMTP relay, upgrading to TLS when the
// server offers STARTTLS.
type SMTPSender struct {
	cfg  Config
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPSender(cfg Config) *SMTPSender {
	d := &net.Dialer{Timeout: cfg.Timeout}
	return &SMTPSender{cfg: cfg, dial: d.DialContext}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := s.send(ctx, msg); err != nil {
		return model.Wrap(model.ErrUpstream, err, "Email sending failed")
	}
	return nil
}

func (s *SMTPSender) send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(s.cfg.From, msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// buildMessage renders headers and body with CRLF line endings.
func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", sanitizeHeader(msg.To))
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	body := strings.ReplaceAll(msg.Text, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}
