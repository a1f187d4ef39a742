package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/infrastructure/metrics"
)

// eventVerifier lo implementa *stripe.SignatureVerifier.
type eventVerifier interface {
	Verify(payload []byte, signatureHeader string) (billing.Event, error)
}

// eventProcessor lo implementa *billing.WebhookUseCase.
type eventProcessor interface {
	Handle(ctx context.Context, ev billing.Event) (billing.EventKind, error)
}

// WebhookHandler recibe los eventos del proveedor de pagos.
type WebhookHandler struct {
	verifier        eventVerifier
	processor       eventProcessor
	signatureHeader string
}

// NewWebhookHandler construye el handler. signatureHeader es el header con la firma.
func NewWebhookHandler(verifier eventVerifier, processor eventProcessor, signatureHeader string) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor, signatureHeader: signatureHeader}
}

// Receive godoc
// @Summary      Webhook del proveedor de pagos
// @Description  Cuerpo crudo firmado. 200 confirma (incluidos eventos ignorados), 400 firma o payload inválido, 500 para reintento.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  dto.WebhookResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /webhooks/billing [post]
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	start := time.Now()
	// fasthttp reutiliza el buffer del body.
	payload := append([]byte(nil), c.Body()...)

	ev, err := h.verifier.Verify(payload, c.Get(h.signatureHeader))
	if err != nil {
		log.Warn().Err(err).Str("ip", c.IP()).Msg("webhook rechazado: firma inválida")
		observeWebhook("unverified", fiber.StatusBadRequest, start)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SIGNATURE", Message: "firma inválida"})
	}

	logger := log.With().Str("event_id", ev.ID).Str("type", ev.Type).Logger()
	kind, err := h.processor.Handle(c.UserContext(), ev)
	switch {
	case errors.Is(err, domain.ErrInvalidPayload):
		logger.Warn().Err(err).Msg("webhook con payload inválido")
		observeWebhook(ev.Type, fiber.StatusBadRequest, start)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PAYLOAD", Message: "payload inválido"})
	case err != nil:
		logger.Error().Err(err).Msg("webhook fallido; el proveedor reintentará")
		observeWebhook(ev.Type, fiber.StatusInternalServerError, start)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PROCESSING_FAILED", Message: "error procesando el evento"})
	}

	logger.Info().Str("kind", kind.String()).Dur("took", time.Since(start)).Msg("webhook procesado")
	observeWebhook(ev.Type, fiber.StatusOK, start)
	return c.JSON(dto.WebhookResponse{Received: true})
}

func observeWebhook(eventType string, status int, start time.Time) {
	metrics.WebhookRequestsTotal.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
	metrics.WebhookDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
}
