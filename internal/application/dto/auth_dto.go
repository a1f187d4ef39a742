package dto

// PermissionsResponse capacidades efectivas de la identidad.
type PermissionsResponse struct {
	CanSell           bool `json:"canSell"`
	CanManageProducts bool `json:"canManageProducts"`
	CanViewReports    bool `json:"canViewReports"`
	CanManageSettings bool `json:"canManageSettings"`
}

// SessionResponse salida de GET /api/auth/session.
type SessionResponse struct {
	UserID             string              `json:"user_id"`
	Email              string              `json:"email"`
	Decision           string              `json:"decision"`
	Role               string              `json:"role"`
	CompanyID          string              `json:"company_id,omitempty"`
	SubscriptionStatus string              `json:"subscription_status"`
	Permissions        PermissionsResponse `json:"permissions"`
}

// DashboardAccessResponse salida de GET /api/dashboard/access.
type DashboardAccessResponse struct {
	Decision           string              `json:"decision"`
	Role               string              `json:"role"`
	CompanyID          string              `json:"company_id"`
	SubscriptionStatus string              `json:"subscription_status"`
	Permissions        PermissionsResponse `json:"permissions"`
}
