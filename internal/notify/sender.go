package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"projecthub/pkg/config"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through a relay.
type SMTPSender struct {
	cfg  config.SMTPConfig
	dial func(ctx context.Context, m *mail.Msg) error
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	s := &SMTPSender{cfg: cfg}
	s.dial = s.dialAndSend
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.message(msg)
	if err != nil {
		return err
	}
	if err := s.dial(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// message builds the MIME message. Header values never carry line breaks and non-ASCII
// subjects are RFC 2047 encoded by go-mail.
func (s *SMTPSender) message(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(headerValue(s.cfg.From)); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.cfg.From, err)
	}
	if err := m.To(headerValue(msg.To)); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}
	m.Subject(headerValue(msg.Subject))
	if !msg.RequestedAt.IsZero() {
		m.SetDateWithValue(msg.RequestedAt)
	} else {
		m.SetDate()
	}
	if msg.ID != "" {
		m.SetMessageIDWithValue(headerValue(msg.ID) + "@projecthub")
	}
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, m *mail.Msg) error {
	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if s.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(s.cfg.Port))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func headerValue(v string) string {
	return strings.TrimSpace(lineBreaks.Replace(v))
}
