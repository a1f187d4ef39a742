package entity

// Identity usuario autenticado por el proveedor de identidad. El ID es inmutable.
type Identity struct {
	ID    string
	Email string // requerido para correlacionar con el proveedor de pagos
	Name  string
}

// Role rol efectivo de una identidad frente a una empresa.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleEmployee Role = "employee"
	RoleUnknown  Role = "unknown"
)

// Decision decisión binaria de acceso.
type Decision string

const (
	DecisionAllowed Decision = "allowed"
	DecisionBlocked Decision = "blocked"
)

// Entitlement resultado de resolver el acceso de una identidad.
type Entitlement struct {
	Decision           Decision
	Role               Role
	CompanyID          string
	SubscriptionStatus SubscriptionStatus
	InactiveEmployee   bool
}

// Allowed atajo para Decision == DecisionAllowed.
func (e Entitlement) Allowed() bool {
	return e.Decision == DecisionAllowed
}
