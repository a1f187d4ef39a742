package stripe

import (
	"errors"
	"fmt"
	"net/http"

	stripelib "github.com/stripe/stripe-go/v81"

	"github.com/jhoicas/Suscripciones-api/internal/domain"
)

// isNotFound informa si el proveedor respondió que el objeto no existe.
func isNotFound(err error) bool {
	var se *stripelib.Error
	if errors.As(err, &se) {
		return se.Code == stripelib.ErrorCodeResourceMissing || se.HTTPStatusCode == http.StatusNotFound
	}
	return false
}

// wrapErr traduce un error de stripe-go a la taxonomía de dominio conservando la operación.
func wrapErr(op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("stripe %s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("stripe %s: %w: %w", op, domain.ErrProviderError, err)
}
