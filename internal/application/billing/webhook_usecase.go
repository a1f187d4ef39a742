package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// WebhookUseCase procesa un evento ya autenticado: lo normaliza y lo despacha a la
// sincronización de estado o al notificador de pagos.
type WebhookUseCase struct {
	normalizer *Normalizer
	statusSync *StatusSyncUseCase
	notifier   PaymentNotifier
}

// NewWebhookUseCase construye el caso de uso.
func NewWebhookUseCase(normalizer *Normalizer, statusSync *StatusSyncUseCase, notifier PaymentNotifier) *WebhookUseCase {
	return &WebhookUseCase{normalizer: normalizer, statusSync: statusSync, notifier: notifier}
}

// Handle devuelve nil cuando el evento queda confirmado (incluidos los no accionables).
// Un error envuelto en domain.ErrInvalidPayload es culpa del emisor; cualquier otro error
// debe responder 5xx para que el proveedor reintente.
func (uc *WebhookUseCase) Handle(ctx context.Context, ev Event) (EventKind, error) {
	n, err := uc.normalizer.Normalize(ctx, ev)
	if err != nil {
		return EventSkip, err
	}

	switch n.Kind {
	case EventStatusSync:
		if err := uc.statusSync.Apply(ctx, *n.Sync); err != nil {
			return n.Kind, fmt.Errorf("sync de estado del evento %s: %w", ev.ID, err)
		}
	case EventPaymentSucceeded:
		if err := uc.notifier.NotifyPaymentSucceeded(ctx, *n.Outcome); err != nil {
			return n.Kind, fmt.Errorf("notificar pago del evento %s: %w", ev.ID, err)
		}
	default:
		log.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("evento no accionable")
	}
	return n.Kind, nil
}
