package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// NotificationMarker registro de idempotencia de una notificación enviada.
type NotificationMarker struct {
	Key           string
	Email         string
	PaymentRef    string
	SourceEventID string
	Amount        decimal.Decimal
}

// NotificationMarkerRepository marcador atómico "insertar si no existe".
type NotificationMarkerRepository interface {
	// Claim inserta el marcador. Devuelve false si ya existía (otra entrega ganó).
	Claim(ctx context.Context, marker NotificationMarker) (bool, error)
	// Release elimina el marcador para que una reentrega pueda reintentar el envío.
	Release(ctx context.Context, key string) error
}
