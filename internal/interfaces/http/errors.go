package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
)

// writeError traduce errores de dominio a status HTTP. Los errores del proveedor y los
// no clasificados responden con un mensaje genérico; el detalle queda en el log.
func writeError(c *fiber.Ctx, err error, genericMsg string) error {
	status, code, msg := fiber.StatusInternalServerError, "INTERNAL", genericMsg
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHENTICATED", "sesión requerida"
	case errors.Is(err, domain.ErrInactiveEmployee):
		status, code, msg = fiber.StatusForbidden, "INACTIVE_EMPLOYEE", "el usuario está inactivo"
	case errors.Is(err, domain.ErrUnrecognized):
		status, code, msg = fiber.StatusForbidden, "UNRECOGNIZED_IDENTITY", "el usuario no pertenece a ninguna empresa"
	case errors.Is(err, domain.ErrMissingReference):
		status, code, msg = fiber.StatusBadRequest, "MISSING_REFERENCE", err.Error()
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidPayload):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrNoBillingCustomer):
		status, code, msg = fiber.StatusNotFound, "NO_BILLING_CUSTOMER", "no hay cliente de facturación registrado"
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", "referencia no encontrada"
	case errors.Is(err, domain.ErrProviderError):
		code = "PROVIDER_ERROR"
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg(genericMsg)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
