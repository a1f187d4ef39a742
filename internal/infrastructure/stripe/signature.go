package stripe

import (
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
)

// SignatureHeader cabecera con la firma HMAC del webhook.
const SignatureHeader = "Stripe-Signature"

// VerifyEvent autentica el cuerpo crudo contra la firma y el secreto compartido y recién
// entonces lo decodifica. Cualquier fallo devuelve domain.ErrInvalidSignature.
func VerifyEvent(payload []byte, signatureHeader, secret string) (billing.Event, error) {
	if strings.TrimSpace(secret) == "" {
		return billing.Event{}, fmt.Errorf("%w: secreto no configurado", domain.ErrInvalidSignature)
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return billing.Event{}, fmt.Errorf("%w: falta %s", domain.ErrInvalidSignature, SignatureHeader)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return billing.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := billing.Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data != nil {
		out.Data = ev.Data.Raw
	}
	return out, nil
}

// SignatureVerifier guarda el secreto del endpoint para el handler HTTP.
type SignatureVerifier struct {
	secret string
}

// NewSignatureVerifier construye el verificador.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Verify ver VerifyEvent.
func (v *SignatureVerifier) Verify(payload []byte, signatureHeader string) (billing.Event, error) {
	return VerifyEvent(payload, signatureHeader, v.secret)
}
