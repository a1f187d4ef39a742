package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/timeout"
)

// RequestTimeout fija un plazo al contexto de la solicitud (c.UserContext()). Los casos de uso
// lo propagan a PostgreSQL, al proveedor de pagos y al envío de email; un handler que
// devuelve context.DeadlineExceeded responde 408.
func RequestTimeout(d time.Duration) fiber.Handler {
	return timeout.NewWithContext(func(c *fiber.Ctx) error {
		return c.Next()
	}, d)
}
