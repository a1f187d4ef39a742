package auth

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// AuthUseCase puerta de login: resuelve acceso y permisos de la sesión actual.
type AuthUseCase struct {
	entitlements *EntitlementResolver
	permissions  *PermissionResolver
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(entitlements *EntitlementResolver, permissions *PermissionResolver) *AuthUseCase {
	return &AuthUseCase{entitlements: entitlements, permissions: permissions}
}

// Session rechaza con ErrInactiveEmployee antes de calcular permisos y con ErrUnrecognized
// si la identidad no es dueño ni empleado. Una empresa sin suscripción vigente devuelve
// la sesión con decision=blocked para que el cliente muestre la pantalla de pago.
func (uc *AuthUseCase) Session(ctx context.Context, identity entity.Identity) (*dto.SessionResponse, error) {
	if identity.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	ent, err := uc.entitlements.Resolve(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if ent.InactiveEmployee {
		log.Info().Str("user_id", identity.ID).Str("company_id", ent.CompanyID).Msg("login rechazado: empleado inactivo")
		return nil, domain.ErrInactiveEmployee
	}
	if ent.Role == entity.RoleUnknown {
		return nil, domain.ErrUnrecognized
	}

	perms, err := uc.permissions.Resolve(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		UserID:             identity.ID,
		Email:              identity.Email,
		Decision:           string(ent.Decision),
		Role:               string(ent.Role),
		CompanyID:          ent.CompanyID,
		SubscriptionStatus: string(ent.SubscriptionStatus),
		Permissions:        ToPermissionsResponse(perms),
	}, nil
}

// ToPermissionsResponse convierte un PermissionSet a su DTO.
func ToPermissionsResponse(p entity.PermissionSet) dto.PermissionsResponse {
	return dto.PermissionsResponse{
		CanSell:           p.CanSell,
		CanManageProducts: p.CanManageProducts,
		CanViewReports:    p.CanViewReports,
		CanManageSettings: p.CanManageSettings,
	}
}
