package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
)

// sessionService lo implementa *auth.AuthUseCase.
type sessionService interface {
	Session(ctx context.Context, identity entity.Identity) (*dto.SessionResponse, error)
}

// AuthHandler expone la sesión actual con su decisión de acceso.
type AuthHandler struct {
	uc         sessionService
	cookieName string
}

// NewAuthHandler construye el handler de auth. cookieName es la cookie que se borra
// cuando el empleado está inactivo.
func NewAuthHandler(uc sessionService, cookieName string) *AuthHandler {
	return &AuthHandler{uc: uc, cookieName: cookieName}
}

// Session godoc
// @Summary      Sesión actual
// @Description  Puerta de login: rechaza empleados inactivos y devuelve decisión y permisos.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	identity, ok := GetIdentity(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated, "")
	}
	out, err := h.uc.Session(c.UserContext(), identity)
	if err != nil {
		if errors.Is(err, domain.ErrInactiveEmployee) && h.cookieName != "" {
			c.ClearCookie(h.cookieName)
		}
		return writeError(c, err, "no se pudo resolver la sesión")
	}
	return c.JSON(out)
}
