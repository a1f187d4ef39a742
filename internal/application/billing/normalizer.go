package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entitlement"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/infrastructure/metrics"
)

// DefaultPlanName plan asumido cuando la suscripción no trae plan_name en su metadata.
const DefaultPlanName = "Premium"

// EventKind clasificación de un evento normalizado.
type EventKind int

const (
	// EventSkip evento no accionable: se confirma con 200 y no se hace nada más.
	EventSkip EventKind = iota
	// EventPaymentSucceeded pago exitoso (recurrente o único) → notificación.
	EventPaymentSucceeded
	// EventStatusSync cambio de ciclo de vida de la suscripción → estado de la empresa.
	EventStatusSync
)

func (k EventKind) String() string {
	switch k {
	case EventPaymentSucceeded:
		return "payment_succeeded"
	case EventStatusSync:
		return "status_sync"
	default:
		return "skip"
	}
}

// StatusSync cambio de estado de suscripción extraído de un evento de ciclo de vida.
type StatusSync struct {
	EventID         string
	SubscriptionRef string
	CustomerRef     string
	IdentityID      string // metadata.user_id escrita por el checkout
	ProviderStatus  string
	Status          entity.SubscriptionStatus
	KnownStatus     bool
	PlanName        string
	OccurredAt      time.Time
	// Authoritative el estado ya se leyó del proveedor considerando todas las suscripciones
	// del cliente (resync): no se relee ni se filtra por suscripción.
	Authoritative bool
}

// Normalized unión etiquetada: según Kind, Outcome o Sync viene informado.
type Normalized struct {
	Kind    EventKind
	Outcome *entity.PaymentOutcome
	Sync    *StatusSync
}

// Normalizer traduce eventos heterogéneos del proveedor a PaymentOutcome / StatusSync.
// Nunca escribe el estado de suscripción; eso lo hace StatusSyncUseCase.
type Normalizer struct {
	gateway     BillingGateway
	defaultPlan string
}

// NewNormalizer construye el normalizador. defaultPlan vacío usa DefaultPlanName.
func NewNormalizer(gateway BillingGateway, defaultPlan string) *Normalizer {
	if strings.TrimSpace(defaultPlan) == "" {
		defaultPlan = DefaultPlanName
	}
	return &Normalizer{gateway: gateway, defaultPlan: defaultPlan}
}

// Normalize decodifica el objeto del evento según su tipo. Los tipos no reconocidos
// devuelven EventSkip. Un objeto sin sus campos obligatorios devuelve domain.ErrInvalidPayload.
func (n *Normalizer) Normalize(ctx context.Context, ev Event) (Normalized, error) {
	switch ev.Type {
	case EventInvoicePaymentSucceeded:
		outcome, err := n.fromInvoice(ctx, ev)
		if err != nil {
			return Normalized{}, err
		}
		return Normalized{Kind: EventPaymentSucceeded, Outcome: outcome}, nil

	case EventPaymentIntentSucceeded:
		outcome, err := n.fromPaymentIntent(ctx, ev)
		if err != nil {
			return Normalized{}, err
		}
		if outcome == nil {
			return Normalized{Kind: EventSkip}, nil
		}
		return Normalized{Kind: EventPaymentSucceeded, Outcome: outcome}, nil

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		sync, err := n.fromSubscription(ev)
		if err != nil {
			return Normalized{}, err
		}
		return Normalized{Kind: EventStatusSync, Sync: sync}, nil

	default:
		return Normalized{Kind: EventSkip}, nil
	}
}

func (n *Normalizer) fromInvoice(ctx context.Context, ev Event) (*entity.PaymentOutcome, error) {
	var inv invoicePayload
	if err := json.Unmarshal(ev.Data, &inv); err != nil {
		return nil, fmt.Errorf("%w: decode invoice: %v", domain.ErrInvalidPayload, err)
	}
	if inv.ID == "" {
		return nil, fmt.Errorf("%w: invoice sin id", domain.ErrInvalidPayload)
	}

	planName := n.defaultPlan
	if inv.Subscription != "" {
		sub, err := n.gateway.GetSubscription(ctx, string(inv.Subscription))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			log.Warn().Str("invoice_id", inv.ID).Str("subscription_id", string(inv.Subscription)).
				Msg("suscripción de la factura no encontrada, se usa plan por defecto")
		case err != nil:
			return nil, fmt.Errorf("resolver suscripción de la factura %s: %w", inv.ID, err)
		default:
			if p := strings.TrimSpace(sub.Metadata[MetadataPlanName]); p != "" {
				planName = p
			}
		}
	}

	outcome := &entity.PaymentOutcome{
		Status:              entity.PaymentPaid,
		ProviderStatus:      "paid",
		CustomerEmail:       strings.TrimSpace(inv.CustomerEmail),
		ExternalCustomerRef: string(inv.Customer),
		PlanName:            planName,
		SourceEventID:       ev.ID,
		PaymentRef:          string(inv.PaymentIntent),
		Amount:              minorUnitsToDecimal(inv.AmountPaid, inv.Currency),
		Currency:            strings.ToLower(inv.Currency),
		Recurring:           inv.Subscription != "",
	}

	// El nombre visible no es un email. Se conserva el comportamiento heredado pero
	// queda marcado y medido; el despachador no envía a direcciones inválidas.
	if outcome.CustomerEmail == "" && strings.TrimSpace(inv.CustomerName) != "" {
		outcome.CustomerEmail = strings.TrimSpace(inv.CustomerName)
		outcome.EmailFromDisplayName = true
		metrics.InvoiceEmailFallbackTotal.Inc()
		log.Warn().
			Str("event_id", ev.ID).
			Str("invoice_id", inv.ID).
			Str("customer_id", string(inv.Customer)).
			Msg("factura sin customer_email: se usó customer_name como email")
	}
	return outcome, nil
}

func (n *Normalizer) fromPaymentIntent(ctx context.Context, ev Event) (*entity.PaymentOutcome, error) {
	var pi paymentIntentPayload
	if err := json.Unmarshal(ev.Data, &pi); err != nil {
		return nil, fmt.Errorf("%w: decode payment_intent: %v", domain.ErrInvalidPayload, err)
	}
	if pi.ID == "" {
		return nil, fmt.Errorf("%w: payment_intent sin id", domain.ErrInvalidPayload)
	}
	// El cobro de una factura lo notifica invoice.payment_succeeded, que trae el plan
	// de la suscripción; ambos comparten marcador y el intent no debe ganarle.
	if pi.Invoice != "" {
		log.Debug().Str("event_id", ev.ID).Str("payment_intent_id", pi.ID).Str("invoice_id", string(pi.Invoice)).
			Msg("payment intent de factura, se notifica con el evento de la factura")
		return nil, nil
	}

	email := strings.TrimSpace(pi.ReceiptEmail)
	if email == "" && pi.Customer != "" {
		cust, err := n.gateway.GetCustomer(ctx, string(pi.Customer))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			log.Warn().Str("payment_intent_id", pi.ID).Str("customer_id", string(pi.Customer)).
				Msg("cliente del payment intent no encontrado")
		case err != nil:
			return nil, fmt.Errorf("resolver cliente del payment intent %s: %w", pi.ID, err)
		case !cust.Deleted:
			email = strings.TrimSpace(cust.Email)
		}
	}

	providerStatus := pi.Status
	if providerStatus == "" {
		providerStatus = "succeeded"
	}
	return &entity.PaymentOutcome{
		Status:              entity.PaymentPaid,
		ProviderStatus:      providerStatus,
		CustomerEmail:       email,
		ExternalCustomerRef: string(pi.Customer),
		PlanName:            strings.TrimSpace(pi.Metadata[MetadataPlanName]),
		SourceEventID:       ev.ID,
		PaymentRef:          pi.ID,
		Amount:              minorUnitsToDecimal(pi.Amount, pi.Currency),
		Currency:            strings.ToLower(pi.Currency),
	}, nil
}

func (n *Normalizer) fromSubscription(ev Event) (*StatusSync, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(ev.Data, &sub); err != nil {
		return nil, fmt.Errorf("%w: decode subscription: %v", domain.ErrInvalidPayload, err)
	}
	if sub.ID == "" {
		return nil, fmt.Errorf("%w: subscription sin id", domain.ErrInvalidPayload)
	}
	identityID := strings.TrimSpace(sub.Metadata[MetadataUserID])
	if sub.Customer == "" && identityID == "" {
		return nil, fmt.Errorf("%w: subscription %s sin customer ni user_id", domain.ErrInvalidPayload, sub.ID)
	}

	providerStatus := sub.Status
	if providerStatus == "" && ev.Type == EventSubscriptionDeleted {
		providerStatus = "canceled"
	}
	status, known := entitlement.MapProviderStatus(providerStatus)

	occurredAt := ev.Created
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return &StatusSync{
		EventID:         ev.ID,
		SubscriptionRef: sub.ID,
		CustomerRef:     string(sub.Customer),
		IdentityID:      identityID,
		ProviderStatus:  providerStatus,
		Status:          status,
		KnownStatus:     known,
		PlanName:        strings.TrimSpace(sub.Metadata[MetadataPlanName]),
		OccurredAt:      occurredAt,
	}, nil
}

// zeroDecimalCurrencies monedas cuyo importe del proveedor ya está en unidades enteras.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// threeDecimalCurrencies monedas con tres decimales (milésimas).
var threeDecimalCurrencies = map[string]bool{
	"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
}

// minorUnitsToDecimal convierte un importe en unidades mínimas de la moneda a decimal.
func minorUnitsToDecimal(amount int64, currency string) decimal.Decimal {
	c := strings.ToLower(currency)
	switch {
	case zeroDecimalCurrencies[c]:
		return decimal.NewFromInt(amount)
	case threeDecimalCurrencies[c]:
		return decimal.New(amount, -3)
	default:
		return decimal.New(amount, -2)
	}
}
