package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripciones-api/internal/application/auth"
	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
)

// DashboardHandler rutas del dashboard (detrás de RequireEntitlement).
type DashboardHandler struct {
	permissions permissionResolver
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(permissions permissionResolver) *DashboardHandler {
	return &DashboardHandler{permissions: permissions}
}

// Access godoc
// @Summary      Acceso al dashboard
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dto.DashboardAccessResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/dashboard/access [get]
func (h *DashboardHandler) Access(c *fiber.Ctx) error {
	ent, ok := GetEntitlement(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated, "")
	}
	perms, err := h.permissions.Resolve(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err, "no se pudieron obtener los permisos")
	}
	return c.JSON(dto.DashboardAccessResponse{
		Decision:           string(ent.Decision),
		Role:               string(ent.Role),
		CompanyID:          ent.CompanyID,
		SubscriptionStatus: string(ent.SubscriptionStatus),
		Permissions:        auth.ToPermissionsResponse(perms),
	})
}
