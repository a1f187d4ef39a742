// Package notification envía el email de "terminar registro" una sola vez por pago.
package notification

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
	"github.com/jhoicas/Suscripciones-api/internal/infrastructure/metrics"
)

// Mail email listo para el transporte.
type Mail struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Attachment adjunto binario.
type Attachment struct {
	Name        string
	ContentType string
	Content     []byte
}

// Mailer transporte de salida (Postmark o log).
type Mailer interface {
	Send(ctx context.Context, msg Mail) error
}

// Receipt datos del comprobante PDF adjunto.
type Receipt struct {
	Email      string
	PlanName   string
	Amount     string
	Currency   string
	PaymentRef string
	PaidAt     time.Time
}

// ReceiptRenderer genera el PDF del comprobante.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, r Receipt) ([]byte, error)
}

// Config remitente y URL de registro a la que apunta el email.
type Config struct {
	From        string
	RegisterURL string
	ProductName string
}

// Dispatcher implementa billing.PaymentNotifier. El marcador en almacenamiento durable
// garantiza un solo envío entre réplicas; singleflight evita carreras dentro del proceso.
type Dispatcher struct {
	markers  repository.NotificationMarkerRepository
	mailer   Mailer
	receipts ReceiptRenderer
	cfg      Config
	group    singleflight.Group
	now      func() time.Time
}

// NewDispatcher construye el despachador. receipts puede ser nil (sin adjunto).
func NewDispatcher(markers repository.NotificationMarkerRepository, mailer Mailer, receipts ReceiptRenderer, cfg Config) *Dispatcher {
	if cfg.ProductName == "" {
		cfg.ProductName = "Suscripciones"
	}
	return &Dispatcher{
		markers:  markers,
		mailer:   mailer,
		receipts: receipts,
		cfg:      cfg,
		now:      time.Now,
	}
}

// NotifyPaymentSucceeded envía el email si el pago fue aceptado y aún no se notificó.
// Si el envío falla el marcador se libera y se devuelve error para que el proveedor reintente.
func (d *Dispatcher) NotifyPaymentSucceeded(ctx context.Context, outcome entity.PaymentOutcome) error {
	if !outcome.Accepted() {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	email := strings.TrimSpace(outcome.CustomerEmail)
	if email == "" {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		log.Warn().Str("event_id", outcome.SourceEventID).Str("customer_id", outcome.ExternalCustomerRef).
			Msg("pago sin email de cliente, no se notifica")
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		log.Warn().
			Str("event_id", outcome.SourceEventID).
			Str("customer_id", outcome.ExternalCustomerRef).
			Bool("from_display_name", outcome.EmailFromDisplayName).
			Msg("email de cliente inválido, no se notifica")
		return nil
	}
	key := outcome.IdempotencyKey()
	if key == "" {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		log.Warn().Str("customer_id", outcome.ExternalCustomerRef).Msg("pago sin referencia ni evento, no se puede deduplicar")
		return nil
	}

	_, err, _ := d.group.Do(key, func() (any, error) {
		return nil, d.dispatch(ctx, key, email, outcome)
	})
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, key, email string, o entity.PaymentOutcome) error {
	claimed, err := d.markers.Claim(ctx, repository.NotificationMarker{
		Key:           key,
		Email:         email,
		PaymentRef:    o.PaymentRef,
		SourceEventID: o.SourceEventID,
		Amount:        o.Amount,
	})
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("reclamar marcador %s: %w", key, err)
	}
	if !claimed {
		metrics.NotificationsTotal.WithLabelValues("duplicate").Inc()
		log.Info().Str("key", key).Str("event_id", o.SourceEventID).Msg("notificación ya enviada, se omite")
		return nil
	}

	msg, err := d.compose(ctx, email, o)
	if err == nil {
		err = d.mailer.Send(ctx, msg)
	}
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		if relErr := d.markers.Release(context.WithoutCancel(ctx), key); relErr != nil {
			log.Error().Err(relErr).Str("key", key).Msg("no se pudo liberar el marcador de notificación")
		}
		return fmt.Errorf("enviar email de registro: %w", err)
	}

	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	log.Info().Str("key", key).Str("event_id", o.SourceEventID).Str("plan", o.PlanName).Msg("email de registro enviado")
	return nil
}

func (d *Dispatcher) compose(ctx context.Context, email string, o entity.PaymentOutcome) (Mail, error) {
	data := FinishRegistrationData{
		ProductName: d.cfg.ProductName,
		PlanName:    o.PlanName,
		RegisterURL: registerLink(d.cfg.RegisterURL, email, o.PlanName),
		Recurring:   o.Recurring,
	}
	html, text, err := RenderFinishRegistrationEmail(data)
	if err != nil {
		return Mail{}, err
	}
	msg := Mail{
		From:    d.cfg.From,
		To:      email,
		Subject: fmt.Sprintf("Termina tu registro en %s", d.cfg.ProductName),
		HTML:    html,
		Text:    text,
	}

	if d.receipts != nil {
		pdf, err := d.receipts.RenderReceipt(ctx, Receipt{
			Email:      email,
			PlanName:   o.PlanName,
			Amount:     receiptAmount(o.Amount),
			Currency:   strings.ToUpper(o.Currency),
			PaymentRef: o.PaymentRef,
			PaidAt:     d.now(),
		})
		if err != nil {
			// El comprobante es accesorio: se envía el email sin adjunto.
			log.Warn().Err(err).Str("event_id", o.SourceEventID).Msg("no se pudo generar el comprobante PDF")
		} else {
			msg.Attachments = append(msg.Attachments, Attachment{
				Name:        "comprobante.pdf",
				ContentType: "application/pdf",
				Content:     pdf,
			})
		}
	}
	return msg, nil
}

// receiptAmount importe con la escala que le dio el normalizador según la moneda (0, 2 o 3 decimales).
func receiptAmount(amount decimal.Decimal) string {
	places := -amount.Exponent()
	if places < 0 {
		places = 0
	}
	return amount.StringFixed(places)
}
