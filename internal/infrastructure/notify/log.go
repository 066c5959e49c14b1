package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/core/ports"
	"github.com/errandly/identity-service/internal/infrastructure/config"
)

// LogNotifier writes messages to the log instead of delivering them. Used
// when no SMTP host is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, msg ports.Message) error {
	n.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("text", msg.Text).
		Msg("notification")
	return nil
}

// New picks the SMTP mailer when a host is configured and the log notifier
// otherwise.
func New(cfg config.SMTPConfig, log zerolog.Logger) (ports.Notifier, error) {
	if cfg.Host == "" {
		return NewLogNotifier(log), nil
	}
	return NewSMTPMailer(cfg)
}
