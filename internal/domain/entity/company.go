package entity

import "time"

// SubscriptionStatus estado de la suscripción de una empresa, tal como lo
// escribe la sincronización de estados (eventos de ciclo de vida del proveedor).
type SubscriptionStatus string

// Estados válidos de suscripción (deben coincidir con el CHECK de companies.subscription_status).
const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionUnpaid   SubscriptionStatus = "unpaid"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionNone     SubscriptionStatus = "none"
)

// Company representa una organización/tenant del sistema. Tiene exactamente un dueño (OwnerID).
// Una empresa sin fila en la base se trata como SubscriptionNone.
type Company struct {
	ID                 string
	OwnerID            string // identidad del proveedor de identidad que paga la suscripción
	Name               string
	BillingCustomerRef string // ID del cliente en el proveedor de pagos; vacío hasta el primer checkout
	SubscriptionRef    string // suscripción del proveedor cuyo estado refleja SubscriptionStatus
	SubscriptionStatus SubscriptionStatus
	PlanName           string
	StatusUpdatedAt    *time.Time // instante del último evento de ciclo de vida aplicado
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
