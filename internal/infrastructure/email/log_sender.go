package email

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/notification"
)

// LogSender registra el correo en lugar de enviarlo (desarrollo, sin token de Postmark).
type LogSender struct{}

var _ notification.Mailer = LogSender{}

// Send nunca falla.
func (LogSender) Send(_ context.Context, msg notification.Mail) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("email (solo log)")
	return nil
}
