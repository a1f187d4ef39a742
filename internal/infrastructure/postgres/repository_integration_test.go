//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
	"github.com/jhoicas/Suscripciones-api/pkg/config"
)

// setupPostgres levanta PostgreSQL, aplica las migraciones embebidas y devuelve un pool.
func setupPostgres(t *testing.T, ctx context.Context, statementTimeout time.Duration) *pgxpool.Pool {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "suscripciones",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	connString := fmt.Sprintf("postgres://test:test@%s:%s/suscripciones?sslmode=disable", host, port.Port())

	require.NoError(t, Migrate(connString))

	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: connString, StatementTimeout: statementTimeout},
		PoolOptions{AppName: "suscripciones-test", MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func insertCompany(t *testing.T, pool *pgxpool.Pool, id, owner string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO companies (id, owner_id, name) VALUES ($1, $2, $3)`, id, owner, "Empresa "+id)
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// notification_markers
// ──────────────────────────────────────────────────────────────────────────────

func TestIntegration_NotificationMarkers(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx, 0)
	repo := NewNotificationMarkerRepository(pool)

	marker := repository.NotificationMarker{
		Key: "payment:pi_1", Email: "ana@example.com", PaymentRef: "pi_1", SourceEventID: "evt_1",
		Amount: decimal.New(12345, -3),
	}

	t.Run("claim dos veces: solo la primera gana", func(t *testing.T) {
		ok, err := repo.Claim(ctx, marker)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Claim(ctx, marker)
		require.NoError(t, err)
		assert.False(t, ok)

		var amount decimal.Decimal
		require.NoError(t, pool.QueryRow(ctx, `SELECT amount FROM notification_markers WHERE key = $1`, marker.Key).Scan(&amount))
		assert.True(t, decimal.New(12345, -3).Equal(amount), "importe con tres decimales: %s", amount)
	})

	t.Run("release permite reclamar de nuevo", func(t *testing.T) {
		require.NoError(t, repo.Release(ctx, marker.Key))
		ok, err := repo.Claim(ctx, marker)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("claims concurrentes: exactamente uno", func(t *testing.T) {
		m := marker
		m.Key = "payment:pi_concurrente"

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.Claim(ctx, m)
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// companies
// ──────────────────────────────────────────────────────────────────────────────

func TestIntegration_CompanyRepository(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx, 0)
	repo := NewCompanyRepository(pool)
	insertCompany(t, pool, "c1", "u1")
	insertCompany(t, pool, "c2", "u2")

	t.Run("lecturas puntuales", func(t *testing.T) {
		c, err := repo.GetByOwner(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "c1", c.ID)
		assert.Equal(t, entity.SubscriptionNone, c.SubscriptionStatus)
		assert.Nil(t, c.StatusUpdatedAt)

		c, err = repo.GetByID(ctx, "no-existe")
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("compare-and-swap del cliente de facturación", func(t *testing.T) {
		ok, err := repo.SetBillingCustomerRefIfEmpty(ctx, "c1", "cus_1")
		require.NoError(t, err)
		assert.True(t, ok)

		// Caso: otra solicitud llega tarde con otro cliente
		ok, err = repo.SetBillingCustomerRefIfEmpty(ctx, "c1", "cus_2")
		require.NoError(t, err)
		assert.False(t, ok)

		// Caso: el cliente ya pertenece a otra empresa (UNIQUE)
		ok, err = repo.SetBillingCustomerRefIfEmpty(ctx, "c2", "cus_1")
		require.NoError(t, err)
		assert.False(t, ok)

		c, err := repo.GetByBillingCustomerRef(ctx, "cus_1")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "c1", c.ID)
	})

	t.Run("compare-and-swap concurrente: un solo ganador", func(t *testing.T) {
		insertCompany(t, pool, "c3", "u3")
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := repo.SetBillingCustomerRefIfEmpty(ctx, "c3", fmt.Sprintf("cus_c3_%d", i))
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("guarda de orden del estado de suscripción", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		ok, err := repo.UpdateSubscriptionStatus(ctx, "c1", repository.SubscriptionUpdate{
			SubscriptionRef: "sub_1", Status: entity.SubscriptionActive, PlanName: "Pro", ObservedAt: at,
		})
		require.NoError(t, err)
		assert.True(t, ok)

		// Caso: observación anterior → se ignora
		ok, err = repo.UpdateSubscriptionStatus(ctx, "c1", repository.SubscriptionUpdate{
			SubscriptionRef: "sub_1", Status: entity.SubscriptionCanceled, PlanName: "Pro", ObservedAt: at.Add(-time.Second),
		})
		require.NoError(t, err)
		assert.False(t, ok)

		c, err := repo.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, entity.SubscriptionActive, c.SubscriptionStatus)
		assert.Equal(t, "sub_1", c.SubscriptionRef)
		assert.Equal(t, "Pro", c.PlanName)
		require.NotNil(t, c.StatusUpdatedAt)
		assert.True(t, at.Equal(*c.StatusUpdatedAt))

		// Caso: mismo instante → gana la última escritura
		ok, err = repo.UpdateSubscriptionStatus(ctx, "c1", repository.SubscriptionUpdate{
			SubscriptionRef: "sub_1", Status: entity.SubscriptionTrialing, PlanName: "Pro", ObservedAt: at,
		})
		require.NoError(t, err)
		assert.True(t, ok)

		c, err = repo.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, entity.SubscriptionTrialing, c.SubscriptionStatus)

		// Caso: sin suscripción se guarda NULL
		ok, err = repo.UpdateSubscriptionStatus(ctx, "c2", repository.SubscriptionUpdate{
			Status: entity.SubscriptionNone, ObservedAt: at,
		})
		require.NoError(t, err)
		assert.True(t, ok)
		c, err = repo.GetByID(ctx, "c2")
		require.NoError(t, err)
		assert.Empty(t, c.SubscriptionRef)
	})

	t.Run("CHECK rechaza estados fuera del enum", func(t *testing.T) {
		_, err := repo.UpdateSubscriptionStatus(ctx, "c2", repository.SubscriptionUpdate{
			Status: entity.SubscriptionStatus("paused"), ObservedAt: time.Now(),
		})
		require.Error(t, err)
		var pgErr *pgconn.PgError
		require.True(t, errors.As(err, &pgErr))
		assert.Equal(t, pgerrcode.CheckViolation, pgErr.Code)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// employees
// ──────────────────────────────────────────────────────────────────────────────

func TestIntegration_EmployeeRepository(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx, 0)
	repo := NewEmployeeRepository(pool)
	insertCompany(t, pool, "c1", "u1")

	_, err := pool.Exec(ctx, `
		INSERT INTO employees (id, company_id, auth_identity_ref, email, active, permissions) VALUES
		('e1', 'c1', 'u-e1', 'e1@example.com', TRUE,  '{"canSell": true}'),
		('e2', 'c1', 'u-e2', 'e2@example.com', FALSE, '{"canSell": true, "canViewReports": true}'),
		('e3', 'c1', 'u-e3', 'e3@example.com', TRUE,  '{}')`)
	require.NoError(t, err)

	// Caso 1: claves ausentes se leen como false
	e, err := repo.GetByAuthIdentity(ctx, "u-e1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "c1", e.CompanyID)
	assert.True(t, e.Active)
	assert.Equal(t, entity.PermissionSet{CanSell: true}, e.Permissions)

	// Caso 2: inactivo se devuelve igual (la puerta de login decide)
	e, err = repo.GetByAuthIdentity(ctx, "u-e2")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.False(t, e.Active)
	assert.Equal(t, entity.PermissionSet{CanSell: true, CanViewReports: true}, e.Permissions)

	// Caso 3: objeto vacío → sin permisos
	e, err = repo.GetByAuthIdentity(ctx, "u-e3")
	require.NoError(t, err)
	assert.Equal(t, entity.PermissionSet{}, e.Permissions)

	// Caso 4: identidad desconocida → (nil, nil)
	e, err = repo.GetByAuthIdentity(ctx, "u-x")
	require.NoError(t, err)
	assert.Nil(t, e)
}

// ──────────────────────────────────────────────────────────────────────────────
// statement_timeout
// ──────────────────────────────────────────────────────────────────────────────

func TestIntegration_StatementTimeout(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx, 100*time.Millisecond)

	start := time.Now()
	_, err := pool.Exec(ctx, `SELECT pg_sleep(5)`)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, pgerrcode.QueryCanceled, pgErr.Code)
}
