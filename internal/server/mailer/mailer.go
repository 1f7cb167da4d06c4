// Package mailer sends transactional email over SMTP. Delivery is
// best-effort: jobs go through a Dispatcher that logs and drops failures.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// Message is a single HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SSL dials with implicit TLS. Without it gomail upgrades the
	// connection with STARTTLS when the server offers it.
	SSL bool
}

// SMTPSender sends mail through gomail.
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
}

// dialAndSend is a seam for tests.
var dialAndSend = func(d *gomail.Dialer, m ...*gomail.Message) error {
	return d.DialAndSend(m...)
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	return &SMTPSender{from: cfg.From, dialer: d}
}

// Send delivers msg. The context is only checked before dialing; gomail
// itself does not take one.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	if err := dialAndSend(s.dialer, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
