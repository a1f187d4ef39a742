package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

const companyColumns = `id, owner_id, name, billing_customer_ref, subscription_ref, subscription_status,
	plan_name, status_updated_at, created_at, updated_at`

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByOwner obtiene la empresa cuyo dueño es la identidad indicada.
func (r *CompanyRepo) GetByOwner(ctx context.Context, ownerID string) (*entity.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE owner_id = $1`, ownerID))
	if err != nil {
		return nil, fmt.Errorf("get company by owner: %w", err)
	}
	return c, nil
}

// GetByBillingCustomerRef obtiene la empresa vinculada al cliente del proveedor de pagos.
func (r *CompanyRepo) GetByBillingCustomerRef(ctx context.Context, customerRef string) (*entity.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE billing_customer_ref = $1`, customerRef))
	if err != nil {
		return nil, fmt.Errorf("get company by billing customer: %w", err)
	}
	return c, nil
}

// SetBillingCustomerRefIfEmpty compare-and-swap sobre billing_customer_ref (solo si es NULL).
func (r *CompanyRepo) SetBillingCustomerRefIfEmpty(ctx context.Context, companyID, customerRef string) (bool, error) {
	query := `
		UPDATE companies
		SET billing_customer_ref = $2, updated_at = NOW()
		WHERE id = $1 AND billing_customer_ref IS NULL`
	tag, err := r.pool.Exec(ctx, query, companyID, customerRef)
	if err != nil {
		if isUniqueViolation(err) {
			// el cliente ya pertenece a otra empresa
			return false, nil
		}
		return false, fmt.Errorf("set billing customer ref: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateSubscriptionStatus escribe estado, plan y suscripción salvo que ya se haya aplicado
// una observación posterior. Con el mismo instante gana la última en escribir.
func (r *CompanyRepo) UpdateSubscriptionStatus(ctx context.Context, companyID string, upd repository.SubscriptionUpdate) (bool, error) {
	query := `
		UPDATE companies
		SET subscription_status = $2, plan_name = $3, subscription_ref = $4, status_updated_at = $5, updated_at = NOW()
		WHERE id = $1 AND (status_updated_at IS NULL OR status_updated_at <= $5)`
	tag, err := r.pool.Exec(ctx, query, companyID, string(upd.Status), upd.PlanName,
		nullIfEmpty(upd.SubscriptionRef), upd.ObservedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("update subscription status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// scanCompany devuelve (nil, nil) si no hay fila.
func scanCompany(row pgx.Row) (*entity.Company, error) {
	var (
		c           entity.Company
		customerRef *string
		subRef      *string
		status      string
		statusAt    *time.Time
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &customerRef, &subRef, &status, &c.PlanName,
		&statusAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	c.BillingCustomerRef = derefString(customerRef)
	c.SubscriptionRef = derefString(subRef)
	c.SubscriptionStatus = entity.SubscriptionStatus(status)
	c.StatusUpdatedAt = statusAt
	return &c, nil
}
