package mail

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"

	"rbacblog/internal/config"
	applog "rbacblog/internal/log"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message with a single attempt.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// New returns an SMTP sender, or a log-only sender when no host is configured.
func New(cfg config.SMTP) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTP) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if m.To == "" {
		return errors.New("no recipient specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(s.message(m))
}

func (s *SMTPSender) message(m Message) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	if m.HTML != "" {
		msg.SetBody("text/plain", m.Text)
		msg.AddAlternative("text/html", m.HTML)
	} else {
		msg.SetBody("text/plain", m.Text)
	}
	return msg
}

// LogSender writes messages to the log instead of sending them. Development only:
// the text body, including any links, ends up in the log.
type LogSender struct{}

func (LogSender) Send(_ context.Context, m Message) error {
	applog.Info(nil, "mail.logged", map[string]any{"to": m.To, "subject": m.Subject, "text": m.Text})
	return nil
}
