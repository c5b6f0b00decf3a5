// Package mailer delivers outbound email through a bounded queue so callers
// never wait on SMTP.
package mailer

import (
	"context"
	"fmt"
	"strconv"

	mail "github.com/wneessen/go-mail"
	"github.com/notevault/backend/internal/config"
)

type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender performs the actual delivery. The Dispatcher queues in front of it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}
	if port == 465 {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	return s.client.DialAndSendWithContext(ctx, m)
}
