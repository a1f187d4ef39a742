package entity

import "github.com/shopspring/decimal"

// PaymentStatus estado normalizado de un pago.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
	PaymentUnknown PaymentStatus = "unknown"
)

// PaymentOutcome resultado normalizado de un evento o consulta al proveedor de pagos.
// Es efímero: nunca se persiste como entidad propia.
type PaymentOutcome struct {
	Status PaymentStatus
	// ProviderStatus valor tal cual lo devuelve el proveedor ("complete", "paid",
	// "requires_payment_method", ...). El verificador de pagos lo expone sin traducir.
	ProviderStatus      string
	CustomerEmail       string
	ExternalCustomerRef string
	PlanName            string
	SourceEventID       string
	PaymentRef          string // payment intent asociado, si se conoce
	Amount              decimal.Decimal
	Currency            string
	Recurring           bool // cobro de una suscripción (factura); false en pagos únicos
	// EmailFromDisplayName true cuando CustomerEmail salió del nombre visible de la
	// factura y no de un campo de email (ver normalizador).
	EmailFromDisplayName bool
}

// Accepted informa si el pago se considera exitoso.
func (o PaymentOutcome) Accepted() bool {
	return o.Status == PaymentPaid
}

// IdempotencyKey clave del marcador de notificación. Con referencia de pago se deduplica
// por pago (factura y payment intent del mismo cobro comparten clave); sin ella, por evento.
func (o PaymentOutcome) IdempotencyKey() string {
	if o.PaymentRef != "" {
		return "payment:" + o.PaymentRef
	}
	if o.SourceEventID != "" {
		return "event:" + o.SourceEventID
	}
	return ""
}
