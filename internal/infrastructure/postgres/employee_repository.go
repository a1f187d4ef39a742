package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

var _ repository.EmployeeRepository = (*EmployeeRepo)(nil)

// EmployeeRepo implementación del puerto EmployeeRepository sobre PostgreSQL.
type EmployeeRepo struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository construye el adaptador de persistencia para empleados.
func NewEmployeeRepository(pool *pgxpool.Pool) *EmployeeRepo {
	return &EmployeeRepo{pool: pool}
}

// GetByAuthIdentity busca el empleado vinculado a la identidad, activo o no.
func (r *EmployeeRepo) GetByAuthIdentity(ctx context.Context, identityID string) (*entity.Employee, error) {
	query := `
		SELECT id, company_id, auth_identity_ref, email, name, active, permissions, created_at, updated_at
		FROM employees WHERE auth_identity_ref = $1`
	var (
		e       entity.Employee
		authRef *string
		perms   []byte
	)
	err := r.pool.QueryRow(ctx, query, identityID).Scan(
		&e.ID, &e.CompanyID, &authRef, &e.Email, &e.Name, &e.Active, &perms,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee by auth identity: %w", err)
	}
	e.AuthIdentityRef = derefString(authRef)
	if e.Permissions, err = decodePermissions(perms); err != nil {
		return nil, fmt.Errorf("employee %s: %w", e.ID, err)
	}
	return &e, nil
}

// decodePermissions lee el JSONB de permisos; claves ausentes quedan en false.
func decodePermissions(raw []byte) (entity.PermissionSet, error) {
	var p entity.PermissionSet
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return entity.PermissionSet{}, fmt.Errorf("decode permissions: %w", err)
	}
	return p, nil
}
