// Package entitlement contiene las reglas puras de acceso derivadas del estado de suscripción.
package entitlement

import (
	"strings"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// IsEntitled informa si un estado de suscripción da acceso. Solo active y trialing permiten;
// cualquier otro valor, incluidos los desconocidos, bloquea.
func IsEntitled(status entity.SubscriptionStatus) bool {
	switch status {
	case entity.SubscriptionActive, entity.SubscriptionTrialing:
		return true
	default:
		return false
	}
}

// Decide traduce un estado de suscripción a una decisión de acceso.
func Decide(status entity.SubscriptionStatus) entity.Decision {
	if IsEntitled(status) {
		return entity.DecisionAllowed
	}
	return entity.DecisionBlocked
}

// MapProviderStatus convierte el estado de suscripción del proveedor al enum interno.
// incomplete_expired y unpaid → unpaid. Devuelve ok=false para valores fuera del enum
// (incomplete, paused, ...), que se guardan como none.
func MapProviderStatus(providerStatus string) (entity.SubscriptionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "active":
		return entity.SubscriptionActive, true
	case "trialing":
		return entity.SubscriptionTrialing, true
	case "past_due":
		return entity.SubscriptionPastDue, true
	case "unpaid", "incomplete_expired":
		return entity.SubscriptionUnpaid, true
	case "canceled":
		return entity.SubscriptionCanceled, true
	default:
		return entity.SubscriptionNone, false
	}
}
