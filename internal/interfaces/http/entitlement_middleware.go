package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// entitlementResolver lo implementa *auth.EntitlementResolver.
type entitlementResolver interface {
	Resolve(ctx context.Context, identityID string) (entity.Entitlement, error)
}

// permissionResolver lo implementa *auth.PermissionResolver.
type permissionResolver interface {
	Resolve(ctx context.Context, identityID string) (entity.PermissionSet, error)
}

// RequireEntitlement deja pasar solo identidades con acceso vigente. Debe usarse DESPUÉS de
// AuthMiddleware.
//
// Comportamiento:
//   - 403 Forbidden → empresa sin suscripción vigente, empleado inactivo o identidad desconocida.
//   - 503 Service Unavailable → fallo de infraestructura al consultar la DB (nunca deja pasar).
func RequireEntitlement(resolver entitlementResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHENTICATED", Message: "sesión requerida"})
		}

		ent, err := resolver.Resolve(c.UserContext(), userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("verificación de acceso fallida")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "ENTITLEMENT_CHECK_FAILED",
				Message: "no se pudo verificar el acceso, intente más tarde",
			})
		}
		if ent.InactiveEmployee {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "INACTIVE_EMPLOYEE", Message: "el usuario está inactivo"})
		}
		if !ent.Allowed() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "SUBSCRIPTION_REQUIRED",
				Message: "la empresa no tiene una suscripción activa",
			})
		}

		c.Locals(LocalEntitlement, ent)
		return c.Next()
	}
}

// RequirePermission exige la capacidad indicada (canSell, canViewReports, ...).
func RequirePermission(capability string, resolver permissionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHENTICATED", Message: "sesión requerida"})
		}
		perms, err := resolver.Resolve(c.UserContext(), userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("verificación de permisos fallida")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "PERMISSION_CHECK_FAILED",
				Message: "no se pudo verificar el permiso, intente más tarde",
			})
		}
		if !perms.Has(capability) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "PERMISSION_DENIED",
				Message: "falta el permiso '" + capability + "'",
			})
		}
		return c.Next()
	}
}

// GetEntitlement devuelve el acceso resuelto por RequireEntitlement.
func GetEntitlement(c *fiber.Ctx) (entity.Entitlement, bool) {
	ent, ok := c.Locals(LocalEntitlement).(entity.Entitlement)
	return ent, ok
}
