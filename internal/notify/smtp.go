package notify

import (
	"context"

	"github.com/go-faster/errors"
	gomail "gopkg.in/gomail.v2"
)

// SMTPConfig holds mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address on every message.
	From string
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTP-backed Sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers one message, honoring ctx cancellation. Dial and send run in
// a goroutine because gomail has no context support of its own; on cancel the
// in-flight send is abandoned and its eventual result discarded.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return errors.New("message has no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To...)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "smtp send")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
