package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")

	// Facturación / acceso.
	ErrInvalidSignature  = errors.New("firma del webhook inválida")
	ErrInvalidPayload    = errors.New("payload del evento inválido")
	ErrUnauthenticated   = errors.New("identidad no autenticada")
	ErrMissingReference  = errors.New("se requiere sessionRef o paymentIntentRef")
	ErrProviderError     = errors.New("error del proveedor de pagos")
	ErrNoBillingCustomer = errors.New("la empresa no tiene cliente de facturación")
	ErrInactiveEmployee  = errors.New("empleado inactivo")
	ErrUnrecognized      = errors.New("identidad no reconocida")
)
