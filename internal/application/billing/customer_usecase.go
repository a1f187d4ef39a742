package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
)

// CustomerUseCase actualiza los datos de contacto del cliente en el proveedor de pagos.
type CustomerUseCase struct {
	gateway BillingGateway
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(gateway BillingGateway) *CustomerUseCase {
	return &CustomerUseCase{gateway: gateway}
}

// Update reemplaza email, nombre y teléfono del cliente. externalCustomerRef y email son obligatorios.
func (uc *CustomerUseCase) Update(ctx context.Context, in dto.UpdateBillingCustomerRequest) error {
	ref := strings.TrimSpace(in.ExternalCustomerRef)
	email := strings.TrimSpace(in.Email)
	if ref == "" || email == "" {
		return fmt.Errorf("%w: externalCustomerRef y email son obligatorios", domain.ErrInvalidInput)
	}
	_, err := uc.gateway.UpdateCustomer(ctx, ref, CustomerInput{
		Email: email,
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return err
	}
	log.Info().Str("customer_id", ref).Msg("cliente de facturación actualizado")
	return nil
}
