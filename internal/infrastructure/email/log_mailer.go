package email

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/updoot/discussion-backend/internal/core/ports"
)

// LogMailer writes outbound mail to the log instead of delivering it. Used
// in development when no Postmark token is configured, so reset links stay
// reachable from the console.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, mail ports.Mail) error {
	m.log.Info().
		Str("to", mail.To).
		Str("subject", mail.Subject).
		Str("body", mail.HTML).
		Msg("mail (log only)")
	return nil
}
