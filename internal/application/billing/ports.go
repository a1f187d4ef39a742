package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// BillingCustomer cliente en el proveedor de pagos.
type BillingCustomer struct {
	ID       string
	Email    string
	Name     string
	Deleted  bool
	Metadata map[string]string
}

// CustomerInput datos para crear o actualizar un cliente en el proveedor.
type CustomerInput struct {
	Email    string
	Name     string
	Phone    string
	Metadata map[string]string
}

// CheckoutInput parámetros de un checkout de suscripción.
type CheckoutInput struct {
	CustomerRef string
	PriceRef    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession sesión de checkout del proveedor.
type CheckoutSession struct {
	ID               string
	URL              string
	Status           string // open, complete, expired
	PaymentStatus    string // paid, unpaid, no_payment_required
	CustomerRef      string
	CustomerEmail    string
	PaymentIntentRef string
	AmountTotal      int64
	Currency         string
	Metadata         map[string]string
}

// PaymentIntent intento de pago (flujo embebido / pago único).
type PaymentIntent struct {
	ID           string
	Status       string
	CustomerRef  string
	ReceiptEmail string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// Subscription suscripción recurrente.
type Subscription struct {
	ID          string
	CustomerRef string
	Status      string
	Metadata    map[string]string
	Created     time.Time
}

// BillingGateway puerto de salida hacia el proveedor de pagos. Los errores de red o del
// proveedor se devuelven envueltos en domain.ErrProviderError; un objeto inexistente
// se devuelve como domain.ErrNotFound.
type BillingGateway interface {
	// FindCustomerByEmail devuelve el primer cliente con ese email, o nil si no hay.
	FindCustomerByEmail(ctx context.Context, email string) (*BillingCustomer, error)
	CreateCustomer(ctx context.Context, in CustomerInput) (*BillingCustomer, error)
	UpdateCustomer(ctx context.Context, customerRef string, in CustomerInput) (*BillingCustomer, error)
	GetCustomer(ctx context.Context, customerRef string) (*BillingCustomer, error)

	CreateSubscriptionCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionRef string) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerRef, returnURL string) (string, error)

	GetPaymentIntent(ctx context.Context, paymentIntentRef string) (*PaymentIntent, error)
	GetSubscription(ctx context.Context, subscriptionRef string) (*Subscription, error)
	// ListSubscriptions devuelve las suscripciones del cliente en cualquier estado,
	// de la más reciente a la más antigua.
	ListSubscriptions(ctx context.Context, customerRef string) ([]*Subscription, error)
}

// IdentityDirectory puerto hacia el proveedor de identidad (metadata por usuario).
type IdentityDirectory interface {
	// UserMetadata devuelve la metadata clave-valor del usuario; nil si no existe.
	UserMetadata(ctx context.Context, identityID string) (map[string]string, error)
}

// PaymentNotifier lo implementa el despachador de notificaciones.
type PaymentNotifier interface {
	NotifyPaymentSucceeded(ctx context.Context, outcome entity.PaymentOutcome) error
}
