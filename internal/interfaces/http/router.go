package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripciones-api/internal/application/auth"
	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC          *auth.AuthUseCase
	Entitlements    *auth.EntitlementResolver
	Permissions     *auth.PermissionResolver
	Checkout        *billing.CheckoutOrchestrator
	PaymentVerifier *billing.PaymentVerifier
	CustomerUC      *billing.CustomerUseCase
	Webhooks        *billing.WebhookUseCase
	EventVerifier   eventVerifier
	SignatureHeader string
	JWTSecret       string
	SessionCookie   string
	RequestTimeout  time.Duration
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.RequestTimeout > 0 {
		app.Use(RequestTimeout(deps.RequestTimeout))
	}

	// Cookie primero (navegador), Bearer como respaldo (clientes no navegador).
	requireAuth := AuthMiddleware(
		CookieStrategy(deps.JWTSecret, deps.SessionCookie),
		BearerStrategy(deps.JWTSecret),
	)

	// Webhooks (público, autenticado por firma)
	webhookHandler := NewWebhookHandler(deps.EventVerifier, deps.Webhooks, deps.SignatureHeader)
	app.Post("/webhooks/billing", webhookHandler.Receive)

	// Checkout y portal
	billingHandler := NewBillingHandler(deps.Checkout, deps.PaymentVerifier, deps.CustomerUC, deps.Entitlements)
	app.Post("/checkout", requireAuth, billingHandler.Checkout)
	app.Post("/portal", requireAuth, billingHandler.Portal)
	app.Post("/checkout/verify", billingHandler.VerifyPayment)
	app.Post("/checkout/customer", billingHandler.UpdateCustomer)

	api := app.Group("/api")

	// Sesión (puerta de login)
	authHandler := NewAuthHandler(deps.AuthUC, deps.SessionCookie)
	api.Get("/auth/session", requireAuth, authHandler.Session)

	// Dashboard (requiere suscripción vigente)
	dashboard := api.Group("/dashboard", requireAuth, RequireEntitlement(deps.Entitlements))
	dashboardHandler := NewDashboardHandler(deps.Permissions)
	dashboard.Get("/access", dashboardHandler.Access)
	dashboard.Get("/reports/access", RequirePermission(entity.CapViewReports, deps.Permissions), dashboardHandler.Access)
}
