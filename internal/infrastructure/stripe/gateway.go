// Package stripe implementa el gateway de facturación y la verificación de webhooks sobre stripe-go.
package stripe

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	stripelib "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
)

// Config credenciales y límites del cliente HTTP hacia el proveedor.
type Config struct {
	SecretKey         string
	Timeout           time.Duration
	MaxNetworkRetries int64
	// APIURL reemplaza la URL base de la API (tests contra httptest).
	APIURL string
}

// Gateway implementa billing.BillingGateway con un cliente stripe-go propio (sin estado global).
type Gateway struct {
	api *client.API
}

var _ billing.BillingGateway = (*Gateway)(nil)

// NewGateway construye el gateway.
func NewGateway(cfg Config) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	backendCfg := &stripelib.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripelib.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     &stripelib.LeveledLogger{Level: stripelib.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripelib.String(cfg.APIURL)
	}
	backend := stripelib.GetBackendWithConfig(stripelib.APIBackend, backendCfg)
	return &Gateway{
		api: client.New(cfg.SecretKey, &stripelib.Backends{API: backend, Connect: backend, Uploads: backend}),
	}
}

// ── Clientes ──────────────────────────────────────────────────────────────────

// FindCustomerByEmail devuelve el primer cliente con ese email según el orden del proveedor.
func (g *Gateway) FindCustomerByEmail(ctx context.Context, email string) (*billing.BillingCustomer, error) {
	params := &stripelib.CustomerListParams{Email: stripelib.String(email)}
	params.Context = ctx
	params.Limit = stripelib.Int64(1)
	params.Single = true

	iter := g.api.Customers.List(params)
	for iter.Next() {
		return toCustomer(iter.Customer()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, g.fail("customers.list", err)
	}
	return nil, nil
}

// CreateCustomer crea un cliente con la metadata indicada.
func (g *Gateway) CreateCustomer(ctx context.Context, in billing.CustomerInput) (*billing.BillingCustomer, error) {
	params := customerParams(in)
	params.Context = ctx
	cust, err := g.api.Customers.New(params)
	if err != nil {
		return nil, g.fail("customers.create", err)
	}
	return toCustomer(cust), nil
}

// UpdateCustomer reemplaza los datos de contacto del cliente.
func (g *Gateway) UpdateCustomer(ctx context.Context, customerRef string, in billing.CustomerInput) (*billing.BillingCustomer, error) {
	params := customerParams(in)
	params.Context = ctx
	cust, err := g.api.Customers.Update(customerRef, params)
	if err != nil {
		return nil, g.fail("customers.update", err)
	}
	return toCustomer(cust), nil
}

// GetCustomer obtiene un cliente; los eliminados vuelven con Deleted=true.
func (g *Gateway) GetCustomer(ctx context.Context, customerRef string) (*billing.BillingCustomer, error) {
	params := &stripelib.CustomerParams{}
	params.Context = ctx
	cust, err := g.api.Customers.Get(customerRef, params)
	if err != nil {
		return nil, g.fail("customers.get", err)
	}
	return toCustomer(cust), nil
}

func customerParams(in billing.CustomerInput) *stripelib.CustomerParams {
	params := &stripelib.CustomerParams{Email: stripelib.String(in.Email)}
	if in.Name != "" {
		params.Name = stripelib.String(in.Name)
	}
	if in.Phone != "" {
		params.Phone = stripelib.String(in.Phone)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func toCustomer(c *stripelib.Customer) *billing.BillingCustomer {
	if c == nil {
		return nil
	}
	return &billing.BillingCustomer{
		ID:       c.ID,
		Email:    c.Email,
		Name:     c.Name,
		Deleted:  c.Deleted,
		Metadata: c.Metadata,
	}
}

// ── Checkout y portal ─────────────────────────────────────────────────────────

// CreateSubscriptionCheckout abre un checkout en modo suscripción con una sola línea.
// La metadata se copia a la sesión y a la suscripción resultante.
func (g *Gateway) CreateSubscriptionCheckout(ctx context.Context, in billing.CheckoutInput) (*billing.CheckoutSession, error) {
	params := &stripelib.CheckoutSessionParams{
		Mode:       stripelib.String(string(stripelib.CheckoutSessionModeSubscription)),
		Customer:   stripelib.String(in.CustomerRef),
		SuccessURL: stripelib.String(in.SuccessURL),
		CancelURL:  stripelib.String(in.CancelURL),
		LineItems: []*stripelib.CheckoutSessionLineItemParams{
			{
				Price:    stripelib.String(in.PriceRef),
				Quantity: stripelib.Int64(1),
			},
		},
		SubscriptionData: &stripelib.CheckoutSessionSubscriptionDataParams{
			Metadata: in.Metadata,
		},
	}
	if userID := in.Metadata[billing.MetadataUserID]; userID != "" {
		params.ClientReferenceID = stripelib.String(userID)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, g.fail("checkout.sessions.create", err)
	}
	return toCheckoutSession(s), nil
}

// GetCheckoutSession obtiene una sesión de checkout.
func (g *Gateway) GetCheckoutSession(ctx context.Context, sessionRef string) (*billing.CheckoutSession, error) {
	params := &stripelib.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionRef, params)
	if err != nil {
		return nil, g.fail("checkout.sessions.get", err)
	}
	return toCheckoutSession(s), nil
}

// CreatePortalSession devuelve la URL del portal de facturación del cliente.
func (g *Gateway) CreatePortalSession(ctx context.Context, customerRef, returnURL string) (string, error) {
	params := &stripelib.BillingPortalSessionParams{Customer: stripelib.String(customerRef)}
	if returnURL != "" {
		params.ReturnURL = stripelib.String(returnURL)
	}
	params.Context = ctx
	s, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", g.fail("billing_portal.sessions.create", err)
	}
	return s.URL, nil
}

func toCheckoutSession(s *stripelib.CheckoutSession) *billing.CheckoutSession {
	out := &billing.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerRef = s.Customer.ID
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentRef = s.PaymentIntent.ID
	}
	return out
}

// ── Pagos y suscripciones ─────────────────────────────────────────────────────

// GetPaymentIntent obtiene un payment intent.
func (g *Gateway) GetPaymentIntent(ctx context.Context, paymentIntentRef string) (*billing.PaymentIntent, error) {
	params := &stripelib.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(paymentIntentRef, params)
	if err != nil {
		return nil, g.fail("payment_intents.get", err)
	}
	out := &billing.PaymentIntent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ReceiptEmail: pi.ReceiptEmail,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		out.CustomerRef = pi.Customer.ID
	}
	return out, nil
}

// GetSubscription obtiene una suscripción.
func (g *Gateway) GetSubscription(ctx context.Context, subscriptionRef string) (*billing.Subscription, error) {
	params := &stripelib.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(subscriptionRef, params)
	if err != nil {
		return nil, g.fail("subscriptions.get", err)
	}
	return toSubscription(sub), nil
}

// subscriptionListLimit tope de suscripciones leídas por cliente.
const subscriptionListLimit = 20

// ListSubscriptions devuelve las suscripciones del cliente en cualquier estado (más reciente primero).
func (g *Gateway) ListSubscriptions(ctx context.Context, customerRef string) ([]*billing.Subscription, error) {
	params := &stripelib.SubscriptionListParams{
		Customer: stripelib.String(customerRef),
		Status:   stripelib.String("all"),
	}
	params.Context = ctx
	params.Limit = stripelib.Int64(subscriptionListLimit)
	params.Single = true

	var out []*billing.Subscription
	iter := g.api.Subscriptions.List(params)
	for iter.Next() {
		out = append(out, toSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, g.fail("subscriptions.list", err)
	}
	return out, nil
}

func toSubscription(s *stripelib.Subscription) *billing.Subscription {
	out := &billing.Subscription{
		ID:       s.ID,
		Status:   string(s.Status),
		Metadata: s.Metadata,
		Created:  time.Unix(s.Created, 0).UTC(),
	}
	if s.Customer != nil {
		out.CustomerRef = s.Customer.ID
	}
	return out
}

func (g *Gateway) fail(op string, err error) error {
	if isNotFound(err) {
		log.Debug().Str("op", op).Msg("stripe: objeto no encontrado")
	} else {
		log.Error().Err(err).Str("op", op).Msg("stripe: llamada fallida")
	}
	return wrapErr(op, err)
}
