package billing

import (
	"bytes"
	"encoding/json"
	"time"
)

// Tipos de evento del proveedor que el núcleo reconoce.
const (
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventPaymentIntentSucceeded  = "payment_intent.succeeded"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
)

// Claves de metadata que el checkout escribe y los eventos devuelven.
const (
	MetadataUserID   = "user_id"
	MetadataPlanName = "plan_name"
)

// Event evento de facturación ya autenticado por el verificador de firma.
// Data contiene el objeto del evento sin decodificar.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Data    json.RawMessage
}

// expandableID acepta un campo del proveedor que puede venir como ID ("cus_123")
// o como objeto expandido ({"id": "cus_123", ...}).
type expandableID string

func (e *expandableID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

// invoicePayload campos de la factura que usa el normalizador.
type invoicePayload struct {
	ID            string            `json:"id"`
	Customer      expandableID      `json:"customer"`
	CustomerEmail string            `json:"customer_email"`
	CustomerName  string            `json:"customer_name"`
	Subscription  expandableID      `json:"subscription"`
	PaymentIntent expandableID      `json:"payment_intent"`
	AmountPaid    int64             `json:"amount_paid"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// paymentIntentPayload campos del payment intent que usa el normalizador.
type paymentIntentPayload struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Customer     expandableID      `json:"customer"`
	Invoice      expandableID      `json:"invoice"`
	ReceiptEmail string            `json:"receipt_email"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

// subscriptionPayload campos de la suscripción para la sincronización de estado.
type subscriptionPayload struct {
	ID       string            `json:"id"`
	Customer expandableID      `json:"customer"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}
