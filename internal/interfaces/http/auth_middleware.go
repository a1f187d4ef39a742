package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/pkg/jwt"
)

// Locals keys en Fiber.
const (
	LocalIdentity    = "identity"
	LocalEntitlement = "entitlement"
)

// AuthStrategy intenta obtener la identidad de la petición; false si no aplica o el token no sirve.
type AuthStrategy func(c *fiber.Ctx) (entity.Identity, bool)

// CookieStrategy lee el token de sesión de la cookie del proveedor de identidad.
func CookieStrategy(jwtSecret, cookieName string) AuthStrategy {
	return func(c *fiber.Ctx) (entity.Identity, bool) {
		if cookieName == "" {
			return entity.Identity{}, false
		}
		return identityFromToken(jwtSecret, c.Cookies(cookieName))
	}
}

// BearerStrategy lee el token del header Authorization: Bearer <token>.
func BearerStrategy(jwtSecret string) AuthStrategy {
	return func(c *fiber.Ctx) (entity.Identity, bool) {
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return entity.Identity{}, false
		}
		return identityFromToken(jwtSecret, parts[1])
	}
}

func identityFromToken(secret, token string) (entity.Identity, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return entity.Identity{}, false
	}
	claims, err := jwt.Parse(secret, token)
	if err != nil {
		return entity.Identity{}, false
	}
	return entity.Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Name()}, true
}

// AuthMiddleware prueba las estrategias en orden y responde 401 solo si ninguna obtiene identidad.
func AuthMiddleware(strategies ...AuthStrategy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, s := range strategies {
			if identity, ok := s(c); ok {
				c.Locals(LocalIdentity, identity)
				return c.Next()
			}
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHENTICATED", Message: "sesión inválida o expirada"})
	}
}

// GetIdentity devuelve la identidad del contexto (después del middleware de auth).
func GetIdentity(c *fiber.Ctx) (entity.Identity, bool) {
	identity, ok := c.Locals(LocalIdentity).(entity.Identity)
	return identity, ok && identity.ID != ""
}

// GetUserID devuelve el ID de la identidad del contexto, vacío si no hay sesión.
func GetUserID(c *fiber.Ctx) string {
	identity, _ := GetIdentity(c)
	return identity.ID
}
