package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure. Las lecturas devuelven (nil, nil) si no hay fila.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByOwner(ctx context.Context, ownerID string) (*entity.Company, error)
	GetByBillingCustomerRef(ctx context.Context, customerRef string) (*entity.Company, error)
	// SetBillingCustomerRefIfEmpty guarda la referencia solo si la empresa aún no tiene una
	// (compare-and-swap). Devuelve false si ya había otra referencia.
	SetBillingCustomerRefIfEmpty(ctx context.Context, companyID, customerRef string) (bool, error)
	// UpdateSubscriptionStatus escribe estado, plan y suscripción si upd.ObservedAt no es anterior
	// al último cambio aplicado. Devuelve false si llegó fuera de orden y se ignoró.
	UpdateSubscriptionStatus(ctx context.Context, companyID string, upd SubscriptionUpdate) (bool, error)
}

// SubscriptionUpdate estado de suscripción observado en el proveedor.
type SubscriptionUpdate struct {
	SubscriptionRef string
	Status          entity.SubscriptionStatus
	PlanName        string
	ObservedAt      time.Time
}
