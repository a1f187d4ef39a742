package entity

import "time"

// Capacidades que puede tener un empleado (claves del JSON employees.permissions).
const (
	CapSell           = "canSell"
	CapManageProducts = "canManageProducts"
	CapViewReports    = "canViewReports"
	CapManageSettings = "canManageSettings"
)

// PermissionSet conjunto de capacidades. Los campos ausentes en la base se leen como false.
type PermissionSet struct {
	CanSell           bool `json:"canSell"`
	CanManageProducts bool `json:"canManageProducts"`
	CanViewReports    bool `json:"canViewReports"`
	CanManageSettings bool `json:"canManageSettings"`
}

// FullPermissions conjunto completo; lo recibe siempre el dueño de la empresa.
func FullPermissions() PermissionSet {
	return PermissionSet{CanSell: true, CanManageProducts: true, CanViewReports: true, CanManageSettings: true}
}

// Has informa si el conjunto incluye la capacidad indicada. Capacidades desconocidas → false.
func (p PermissionSet) Has(capability string) bool {
	switch capability {
	case CapSell:
		return p.CanSell
	case CapManageProducts:
		return p.CanManageProducts
	case CapViewReports:
		return p.CanViewReports
	case CapManageSettings:
		return p.CanManageSettings
	default:
		return false
	}
}

// Employee representa un usuario vinculado a una Company. Nunca tiene suscripción propia:
// su acceso es siempre el de la empresa padre.
type Employee struct {
	ID              string
	CompanyID       string
	AuthIdentityRef string // vacío hasta el primer login
	Email           string
	Name            string
	Active          bool
	Permissions     PermissionSet
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
