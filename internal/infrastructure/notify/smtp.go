package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/errandly/identity-service/internal/core/ports"
	"github.com/errandly/identity-service/internal/infrastructure/config"
)

const defaultSMTPTimeout = 10 * time.Second

// SMTPMailer sends messages as multipart/alternative mail with a plain text
// and an HTML part.
type SMTPMailer struct {
	from    string
	timeout time.Duration
	send    func(ctx context.Context, msg *mail.Msg) error
	now     func() time.Time
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{
		from:    cfg.From,
		timeout: timeout,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}, nil
}

// Send returns once delivery finishes, ctx is done or the mailer timeout
// elapses, whichever comes first. A delivery abandoned on ctx is still
// bounded by the client timeout.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mm, err := m.compose(msg)
	if err != nil {
		return fmt.Errorf("compose mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.send(ctx, mm) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg ports.Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.From(m.from); err != nil {
		return nil, err
	}
	if err := mm.To(msg.To); err != nil {
		return nil, err
	}
	mm.Subject(msg.Subject)
	mm.SetDateWithValue(m.now())

	switch {
	case msg.Text != "" && msg.HTML != "":
		mm.SetBodyString(mail.TypeTextPlain, msg.Text)
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		mm.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	}
	return mm, nil
}
