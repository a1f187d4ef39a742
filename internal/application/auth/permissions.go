package auth

import (
	"context"
	"fmt"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

// PermissionResolver calcula las capacidades de una identidad.
type PermissionResolver struct {
	employeeRepo repository.EmployeeRepository
}

// NewPermissionResolver construye el resolver.
func NewPermissionResolver(employeeRepo repository.EmployeeRepository) *PermissionResolver {
	return &PermissionResolver{employeeRepo: employeeRepo}
}

// Resolve devuelve las capacidades guardadas del empleado activo. Sin empleado activo la
// identidad se trata como dueño y recibe el conjunto completo; el acceso lo decide
// EntitlementResolver, que bloquea a inactivos y desconocidos.
func (r *PermissionResolver) Resolve(ctx context.Context, identityID string) (entity.PermissionSet, error) {
	employee, err := r.employeeRepo.GetByAuthIdentity(ctx, identityID)
	if err != nil {
		return entity.PermissionSet{}, fmt.Errorf("buscar empleado: %w", err)
	}
	if employee != nil && employee.Active {
		return employee.Permissions, nil
	}
	return entity.FullPermissions(), nil
}
