package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// PaymentVerifier consulta de forma síncrona una sesión de checkout o un payment intent.
// El cliente la usa para confirmar el pago antes de registrarse.
type PaymentVerifier struct {
	gateway BillingGateway
}

// NewPaymentVerifier construye el verificador.
func NewPaymentVerifier(gateway BillingGateway) *PaymentVerifier {
	return &PaymentVerifier{gateway: gateway}
}

// Verify requiere al menos una referencia; si llegan ambas gana la sesión.
// ProviderStatus se devuelve tal cual; requires_payment_method es un fallo definitivo.
func (v *PaymentVerifier) Verify(ctx context.Context, sessionRef, paymentIntentRef string) (*entity.PaymentOutcome, error) {
	sessionRef = strings.TrimSpace(sessionRef)
	paymentIntentRef = strings.TrimSpace(paymentIntentRef)
	switch {
	case sessionRef != "":
		return v.verifySession(ctx, sessionRef)
	case paymentIntentRef != "":
		return v.verifyPaymentIntent(ctx, paymentIntentRef)
	default:
		return nil, domain.ErrMissingReference
	}
}

func (v *PaymentVerifier) verifySession(ctx context.Context, ref string) (*entity.PaymentOutcome, error) {
	s, err := v.gateway.GetCheckoutSession(ctx, ref)
	if err != nil {
		return nil, err
	}

	var providerStatus string
	switch {
	case s.PaymentStatus == "paid":
		providerStatus = "paid"
	case s.Status == "complete":
		providerStatus = "complete"
	case s.PaymentStatus != "":
		providerStatus = s.PaymentStatus
	default:
		providerStatus = s.Status
	}

	email := strings.TrimSpace(s.CustomerEmail)
	if email == "" && s.CustomerRef != "" {
		if email, err = v.customerEmail(ctx, s.CustomerRef); err != nil {
			return nil, err
		}
	}
	return &entity.PaymentOutcome{
		Status:              sessionStatus(providerStatus),
		ProviderStatus:      providerStatus,
		CustomerEmail:       email,
		ExternalCustomerRef: s.CustomerRef,
		PlanName:            strings.TrimSpace(s.Metadata[MetadataPlanName]),
		PaymentRef:          s.PaymentIntentRef,
		Amount:              minorUnitsToDecimal(s.AmountTotal, s.Currency),
		Currency:            strings.ToLower(s.Currency),
	}, nil
}

func (v *PaymentVerifier) verifyPaymentIntent(ctx context.Context, ref string) (*entity.PaymentOutcome, error) {
	pi, err := v.gateway.GetPaymentIntent(ctx, ref)
	if err != nil {
		return nil, err
	}

	providerStatus := pi.Status
	if providerStatus == "succeeded" {
		providerStatus = "paid"
	}

	email := strings.TrimSpace(pi.ReceiptEmail)
	if pi.CustomerRef != "" {
		custEmail, err := v.customerEmail(ctx, pi.CustomerRef)
		if err != nil {
			return nil, err
		}
		if custEmail != "" {
			email = custEmail
		}
	}
	return &entity.PaymentOutcome{
		Status:              intentStatus(pi.Status),
		ProviderStatus:      providerStatus,
		CustomerEmail:       email,
		ExternalCustomerRef: pi.CustomerRef,
		PlanName:            strings.TrimSpace(pi.Metadata[MetadataPlanName]),
		PaymentRef:          pi.ID,
		Amount:              minorUnitsToDecimal(pi.Amount, pi.Currency),
		Currency:            strings.ToLower(pi.Currency),
	}, nil
}

// customerEmail email del cliente, vacío si fue eliminado o ya no existe.
func (v *PaymentVerifier) customerEmail(ctx context.Context, customerRef string) (string, error) {
	cust, err := v.gateway.GetCustomer(ctx, customerRef)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("customer_id", customerRef).Msg("cliente del pago no encontrado")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolver cliente %s: %w", customerRef, err)
	}
	if cust.Deleted {
		return "", nil
	}
	return strings.TrimSpace(cust.Email), nil
}

func sessionStatus(providerStatus string) entity.PaymentStatus {
	switch providerStatus {
	case "complete", "paid":
		return entity.PaymentPaid
	case "open", "unpaid":
		return entity.PaymentPending
	case "expired":
		return entity.PaymentFailed
	default:
		return entity.PaymentUnknown
	}
}

func intentStatus(providerStatus string) entity.PaymentStatus {
	switch providerStatus {
	case "succeeded":
		return entity.PaymentPaid
	case "processing", "requires_action", "requires_confirmation", "requires_capture":
		return entity.PaymentPending
	case "requires_payment_method", "canceled":
		return entity.PaymentFailed
	default:
		return entity.PaymentUnknown
	}
}
