package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes mail to the log instead of sending it. Used when no
// MailerSend key is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

func (m *LogMailer) SendWelcome(_ context.Context, toEmail string) error {
	text, _ := welcomeBodies(toEmail)
	m.log.Info().
		Str("to", toEmail).
		Str("subject", welcomeSubject).
		Str("body", text).
		Msg("mail not sent (dev mailer)")
	return nil
}
