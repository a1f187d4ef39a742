package dto

// CheckoutRequest body para POST /checkout.
type CheckoutRequest struct {
	PriceRef string `json:"priceRef" validate:"required,max=255"`
	PlanName string `json:"planName" validate:"omitempty,max=100"`
}

// RedirectResponse URL a la que el cliente debe redirigir (checkout o portal).
type RedirectResponse struct {
	RedirectURL string `json:"redirectURL"`
}

// VerifyPaymentRequest body para POST /checkout/verify. Exactamente una referencia.
type VerifyPaymentRequest struct {
	SessionRef       string `json:"sessionRef,omitempty" validate:"omitempty,max=255"`
	PaymentIntentRef string `json:"paymentIntentRef,omitempty" validate:"omitempty,max=255"`
}

// VerifyPaymentResponse estado del pago tal cual lo reporta el proveedor.
type VerifyPaymentResponse struct {
	Status              string `json:"status"`
	Accepted            bool   `json:"accepted"`
	CustomerEmail       string `json:"customerEmail,omitempty"`
	ExternalCustomerRef string `json:"externalCustomerRef,omitempty"`
	PlanName            string `json:"planName,omitempty"`
}

// UpdateBillingCustomerRequest body para POST /checkout/customer.
type UpdateBillingCustomerRequest struct {
	ExternalCustomerRef string `json:"externalCustomerRef" validate:"required,max=255"`
	Email               string `json:"email" validate:"required,email"`
	Name                string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone               string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// SuccessResponse confirmación sin cuerpo adicional.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// WebhookResponse acuse de recibo de un webhook.
type WebhookResponse struct {
	Received bool `json:"received"`
}
