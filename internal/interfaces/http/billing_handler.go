package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// checkoutService lo implementa *billing.CheckoutOrchestrator.
type checkoutService interface {
	StartSubscriptionCheckout(ctx context.Context, priceRef, planName string, identity entity.Identity) (string, error)
	StartBillingPortal(ctx context.Context, companyID, identityID string) (string, error)
}

// paymentVerifier lo implementa *billing.PaymentVerifier.
type paymentVerifier interface {
	Verify(ctx context.Context, sessionRef, paymentIntentRef string) (*entity.PaymentOutcome, error)
}

// customerUpdater lo implementa *billing.CustomerUseCase.
type customerUpdater interface {
	Update(ctx context.Context, in dto.UpdateBillingCustomerRequest) error
}

// BillingHandler checkout, portal, verificación de pago y datos del cliente.
type BillingHandler struct {
	checkout     checkoutService
	verifier     paymentVerifier
	customers    customerUpdater
	entitlements entitlementResolver
}

// NewBillingHandler construye el handler.
func NewBillingHandler(checkout checkoutService, verifier paymentVerifier, customers customerUpdater, entitlements entitlementResolver) *BillingHandler {
	return &BillingHandler{checkout: checkout, verifier: verifier, customers: customers, entitlements: entitlements}
}

// Checkout godoc
// @Summary      Iniciar checkout de suscripción
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "priceRef, planName"
// @Success      200   {object}  dto.RedirectResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /checkout [post]
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	identity, ok := GetIdentity(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated, "")
	}
	var in dto.CheckoutRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	url, err := h.checkout.StartSubscriptionCheckout(c.UserContext(), in.PriceRef, in.PlanName, identity)
	if err != nil {
		return writeError(c, err, "no se pudo iniciar el pago")
	}
	return c.JSON(dto.RedirectResponse{RedirectURL: url})
}

// Portal godoc
// @Summary      Abrir portal de facturación
// @Tags         billing
// @Produce      json
// @Success      200  {object}  dto.RedirectResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /portal [post]
func (h *BillingHandler) Portal(c *fiber.Ctx) error {
	identity, ok := GetIdentity(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated, "")
	}
	// La empresa sale del mismo recorrido dueño/empleado que el acceso.
	ent, err := h.entitlements.Resolve(c.UserContext(), identity.ID)
	if err != nil {
		return writeError(c, err, "no se pudo abrir el portal")
	}
	url, err := h.checkout.StartBillingPortal(c.UserContext(), ent.CompanyID, identity.ID)
	if err != nil {
		return writeError(c, err, "no se pudo abrir el portal")
	}
	return c.JSON(dto.RedirectResponse{RedirectURL: url})
}

// VerifyPayment godoc
// @Summary      Verificar pago
// @Description  Exactamente una de sessionRef o paymentIntentRef.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        body  body  dto.VerifyPaymentRequest  true  "sessionRef | paymentIntentRef"
// @Success      200   {object}  dto.VerifyPaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /checkout/verify [post]
func (h *BillingHandler) VerifyPayment(c *fiber.Ctx) error {
	var in dto.VerifyPaymentRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	sessionRef := strings.TrimSpace(in.SessionRef)
	intentRef := strings.TrimSpace(in.PaymentIntentRef)
	if (sessionRef == "") == (intentRef == "") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "MISSING_REFERENCE",
			Message: "enviar exactamente una de sessionRef o paymentIntentRef",
		})
	}
	out, err := h.verifier.Verify(c.UserContext(), sessionRef, intentRef)
	if err != nil {
		return writeError(c, err, "falló la verificación del pago")
	}
	return c.JSON(dto.VerifyPaymentResponse{
		Status:              out.ProviderStatus,
		Accepted:            out.Accepted(),
		CustomerEmail:       out.CustomerEmail,
		ExternalCustomerRef: out.ExternalCustomerRef,
		PlanName:            out.PlanName,
	})
}

// UpdateCustomer godoc
// @Summary      Actualizar datos del cliente de facturación
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateBillingCustomerRequest  true  "externalCustomerRef, email, name, phone"
// @Success      200   {object}  dto.SuccessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /checkout/customer [post]
func (h *BillingHandler) UpdateCustomer(c *fiber.Ctx) error {
	var in dto.UpdateBillingCustomerRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	if err := h.customers.Update(c.UserContext(), in); err != nil {
		return writeError(c, err, "no se pudo actualizar el cliente")
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
