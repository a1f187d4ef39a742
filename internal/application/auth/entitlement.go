package auth

import (
	"context"
	"fmt"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entitlement"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

// EntitlementResolver decide si una identidad puede entrar. Solo lee; nunca escribe estado.
type EntitlementResolver struct {
	companyRepo  repository.CompanyRepository
	employeeRepo repository.EmployeeRepository
}

// NewEntitlementResolver construye el resolver.
func NewEntitlementResolver(companyRepo repository.CompanyRepository, employeeRepo repository.EmployeeRepository) *EntitlementResolver {
	return &EntitlementResolver{companyRepo: companyRepo, employeeRepo: employeeRepo}
}

// Resolve recorre dueño→empresa y, si no es dueño, empleado→empresa padre.
// El dueño gana si ambas búsquedas coinciden. Ante un error de la base la decisión es Blocked.
func (r *EntitlementResolver) Resolve(ctx context.Context, identityID string) (entity.Entitlement, error) {
	blocked := entity.Entitlement{
		Decision:           entity.DecisionBlocked,
		Role:               entity.RoleUnknown,
		SubscriptionStatus: entity.SubscriptionNone,
	}
	if identityID == "" {
		return blocked, nil
	}

	company, err := r.companyRepo.GetByOwner(ctx, identityID)
	if err != nil {
		return blocked, fmt.Errorf("buscar empresa del dueño: %w", err)
	}
	if company != nil {
		return decide(entity.RoleOwner, company.ID, company.SubscriptionStatus), nil
	}

	employee, err := r.employeeRepo.GetByAuthIdentity(ctx, identityID)
	if err != nil {
		return blocked, fmt.Errorf("buscar empleado: %w", err)
	}
	if employee == nil {
		return blocked, nil
	}
	if !employee.Active {
		blocked.Role = entity.RoleEmployee
		blocked.CompanyID = employee.CompanyID
		blocked.InactiveEmployee = true
		return blocked, nil
	}

	parent, err := r.companyRepo.GetByID(ctx, employee.CompanyID)
	if err != nil {
		return blocked, fmt.Errorf("buscar empresa del empleado: %w", err)
	}
	if parent == nil {
		// Empresa sin fila: equivale a status none.
		return decide(entity.RoleEmployee, employee.CompanyID, entity.SubscriptionNone), nil
	}
	return decide(entity.RoleEmployee, parent.ID, parent.SubscriptionStatus), nil
}

func decide(role entity.Role, companyID string, status entity.SubscriptionStatus) entity.Entitlement {
	if status == "" {
		status = entity.SubscriptionNone
	}
	return entity.Entitlement{
		Decision:           entitlement.Decide(status),
		Role:               role,
		CompanyID:          companyID,
		SubscriptionStatus: status,
	}
}
