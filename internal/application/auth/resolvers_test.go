package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripciones-api/internal/application/auth"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type stubCompanies struct {
	byID map[string]*entity.Company
	err  error
}

func (s *stubCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byID[id], nil
}

func (s *stubCompanies) GetByOwner(_ context.Context, owner string) (*entity.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.byID {
		if c.OwnerID == owner {
			return c, nil
		}
	}
	return nil, nil
}

func (s *stubCompanies) GetByBillingCustomerRef(context.Context, string) (*entity.Company, error) {
	return nil, nil
}

func (s *stubCompanies) SetBillingCustomerRefIfEmpty(context.Context, string, string) (bool, error) {
	return false, errors.New("no se debe escribir")
}

func (s *stubCompanies) UpdateSubscriptionStatus(context.Context, string, repository.SubscriptionUpdate) (bool, error) {
	return false, errors.New("no se debe escribir")
}

type stubEmployees map[string]*entity.Employee

func (s stubEmployees) GetByAuthIdentity(_ context.Context, id string) (*entity.Employee, error) {
	return s[id], nil
}

type fixture struct {
	companies *stubCompanies
	employees stubEmployees
	uc        *auth.AuthUseCase
	ent       *auth.EntitlementResolver
	perms     *auth.PermissionResolver
}

// newFixture: empresa C1 (dueño U1, status dado), empleado activo E1 con solo canSell,
// empleado inactivo E2.
func newFixture(status entity.SubscriptionStatus) *fixture {
	f := &fixture{
		companies: &stubCompanies{byID: map[string]*entity.Company{
			"C1": {ID: "C1", OwnerID: "U1", SubscriptionStatus: status},
		}},
		employees: stubEmployees{
			"E1": {ID: "emp-1", CompanyID: "C1", AuthIdentityRef: "E1", Active: true, Permissions: entity.PermissionSet{CanSell: true}},
			"E2": {ID: "emp-2", CompanyID: "C1", AuthIdentityRef: "E2", Active: false, Permissions: entity.FullPermissions()},
		},
	}
	f.ent = auth.NewEntitlementResolver(f.companies, f.employees)
	f.perms = auth.NewPermissionResolver(f.employees)
	f.uc = auth.NewAuthUseCase(f.ent, f.perms)
	return f
}

// ──────────────────────────────────────────────────────────────────────────────
// EntitlementResolver
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: el dueño y el empleado activo reflejan el mismo estado de la empresa.
func TestEntitlement_DuenoYEmpleadoSiguenLaEmpresa(t *testing.T) {
	statuses := []entity.SubscriptionStatus{
		entity.SubscriptionActive, entity.SubscriptionTrialing, entity.SubscriptionPastDue,
		entity.SubscriptionUnpaid, entity.SubscriptionCanceled, entity.SubscriptionNone, "paused",
	}
	for _, st := range statuses {
		f := newFixture(st)
		want := entity.DecisionBlocked
		if st == entity.SubscriptionActive || st == entity.SubscriptionTrialing {
			want = entity.DecisionAllowed
		}
		owner, err := f.ent.Resolve(context.Background(), "U1")
		require.NoError(t, err)
		assert.Equal(t, want, owner.Decision, "dueño con %s", st)
		assert.Equal(t, entity.RoleOwner, owner.Role)

		emp, err := f.ent.Resolve(context.Background(), "E1")
		require.NoError(t, err)
		assert.Equal(t, want, emp.Decision, "empleado con %s", st)
		assert.Equal(t, entity.RoleEmployee, emp.Role)
		assert.Equal(t, "C1", emp.CompanyID)
	}
}

// Caso 2: escenario past_due → active sin tocar la fila del empleado.
func TestEntitlement_CambioDeEstadoSinTocarEmpleado(t *testing.T) {
	f := newFixture(entity.SubscriptionPastDue)
	ctx := context.Background()
	before := *f.employees["E1"]

	for _, id := range []string{"U1", "E1"} {
		e, err := f.ent.Resolve(ctx, id)
		require.NoError(t, err)
		assert.False(t, e.Allowed(), id)
	}

	f.companies.byID["C1"].SubscriptionStatus = entity.SubscriptionActive

	for _, id := range []string{"U1", "E1"} {
		e, err := f.ent.Resolve(ctx, id)
		require.NoError(t, err)
		assert.True(t, e.Allowed(), id)
	}
	assert.Equal(t, before, *f.employees["E1"])
}

// Caso 3: identidad desconocida, vacía o error de la base → Blocked.
func TestEntitlement_FallaCerrado(t *testing.T) {
	f := newFixture(entity.SubscriptionActive)
	for _, id := range []string{"desconocido", ""} {
		e, err := f.ent.Resolve(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, entity.DecisionBlocked, e.Decision)
		assert.Equal(t, entity.RoleUnknown, e.Role)
	}

	f.companies.err = errors.New("db caída")
	e, err := f.ent.Resolve(context.Background(), "U1")
	require.Error(t, err)
	assert.Equal(t, entity.DecisionBlocked, e.Decision)
}

// Caso 4: identidad que es dueño y empleado a la vez → gana dueño.
func TestEntitlement_DuenoGana(t *testing.T) {
	f := newFixture(entity.SubscriptionActive)
	f.companies.byID["C2"] = &entity.Company{ID: "C2", OwnerID: "E1", SubscriptionStatus: entity.SubscriptionCanceled}

	e, err := f.ent.Resolve(context.Background(), "E1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleOwner, e.Role)
	assert.Equal(t, "C2", e.CompanyID)
	assert.Equal(t, entity.DecisionBlocked, e.Decision)
}

// Caso 5: empleado cuya empresa no tiene fila → status none → Blocked.
func TestEntitlement_EmpresaSinFila(t *testing.T) {
	f := newFixture(entity.SubscriptionActive)
	f.employees["E3"] = &entity.Employee{CompanyID: "C-huerfana", AuthIdentityRef: "E3", Active: true}

	e, err := f.ent.Resolve(context.Background(), "E3")
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionNone, e.SubscriptionStatus)
	assert.Equal(t, entity.DecisionBlocked, e.Decision)
}

// ──────────────────────────────────────────────────────────────────────────────
// PermissionResolver
// ──────────────────────────────────────────────────────────────────────────────

// Caso 6: dueño → todo true; empleado activo → exactamente su conjunto; inactivo → como dueño.
func TestPermissions(t *testing.T) {
	f := newFixture(entity.SubscriptionActive)
	ctx := context.Background()

	p, err := f.perms.Resolve(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, entity.FullPermissions(), p)

	p, err = f.perms.Resolve(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, entity.PermissionSet{CanSell: true}, p)

	p, err = f.perms.Resolve(ctx, "E2")
	require.NoError(t, err)
	assert.Equal(t, entity.FullPermissions(), p)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login gate
// ──────────────────────────────────────────────────────────────────────────────

// Caso 7: empleado inactivo → ErrInactiveEmployee sin importar el estado de la empresa.
func TestSession_EmpleadoInactivo(t *testing.T) {
	for _, st := range []entity.SubscriptionStatus{entity.SubscriptionActive, entity.SubscriptionPastDue} {
		f := newFixture(st)
		_, err := f.uc.Session(context.Background(), entity.Identity{ID: "E2", Email: "e2@example.com"})
		assert.ErrorIs(t, err, domain.ErrInactiveEmployee, st)
	}
}

// Caso 8: sesión de empleado activo con empresa bloqueada → decision=blocked y sus permisos.
func TestSession_EmpleadoActivo(t *testing.T) {
	f := newFixture(entity.SubscriptionPastDue)
	s, err := f.uc.Session(context.Background(), entity.Identity{ID: "E1", Email: "e1@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "blocked", s.Decision)
	assert.Equal(t, "employee", s.Role)
	assert.Equal(t, "past_due", s.SubscriptionStatus)
	assert.True(t, s.Permissions.CanSell)
	assert.False(t, s.Permissions.CanManageSettings)
}

// Caso 9: identidad sin empresa ni empleado → ErrUnrecognized; sin ID → ErrUnauthenticated.
func TestSession_NoReconocida(t *testing.T) {
	f := newFixture(entity.SubscriptionActive)
	_, err := f.uc.Session(context.Background(), entity.Identity{ID: "nadie"})
	assert.ErrorIs(t, err, domain.ErrUnrecognized)

	_, err = f.uc.Session(context.Background(), entity.Identity{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
