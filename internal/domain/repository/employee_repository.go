package repository

import (
	"context"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// EmployeeRepository define el puerto de persistencia para Employee (DIP).
type EmployeeRepository interface {
	// GetByAuthIdentity busca el empleado vinculado a la identidad (activo o no).
	GetByAuthIdentity(ctx context.Context, identityID string) (*entity.Employee, error)
}
