package utils

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"pizzeria_back_end/internal/config"
)

// Mailer sends HTML e-mail through the configured SMTP relay. Without a host
// messages are logged and dropped, which keeps development setups quiet.
type Mailer struct {
	cfg       config.SMTPConfig
	publicURL string
}

func NewMailer(cfg config.SMTPConfig, publicURL string) *Mailer {
	return &Mailer{cfg: cfg, publicURL: publicURL}
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.cfg.Host == "" {
		log.Debug().Str("to", to).Str("subject", subject).Msg("SMTP disabled, e-mail not sent")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errors.Wrap(err, "invalid sender address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create mail client")
	}

	log.Info().Str("to", to).Str("subject", subject).Msg("Sending e-mail")
	return errors.Wrap(client.DialAndSendWithContext(ctx, msg), "failed to send e-mail")
}
