package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

// SessionPlaceholder token que el proveedor reemplaza por el ID de la sesión en la URL de retorno.
const SessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// LegacyCustomerRefKey campo heredado de la metadata del usuario con su cliente de facturación.
const LegacyCustomerRefKey = "stripe_customer_id"

// CheckoutConfig URLs de retorno del checkout y del portal.
type CheckoutConfig struct {
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

// CheckoutOrchestrator crea o reutiliza el cliente de facturación y abre checkout o portal.
type CheckoutOrchestrator struct {
	companyRepo repository.CompanyRepository
	gateway     BillingGateway
	directory   IdentityDirectory
	cfg         CheckoutConfig
}

// NewCheckoutOrchestrator construye el orquestador.
func NewCheckoutOrchestrator(companyRepo repository.CompanyRepository, gateway BillingGateway, directory IdentityDirectory, cfg CheckoutConfig) *CheckoutOrchestrator {
	return &CheckoutOrchestrator{companyRepo: companyRepo, gateway: gateway, directory: directory, cfg: cfg}
}

// StartSubscriptionCheckout devuelve la URL de redirección a un checkout de suscripción.
// La metadata {user_id, plan_name} viaja en la sesión y en la suscripción para que los
// eventos posteriores no necesiten otra búsqueda de cliente.
func (o *CheckoutOrchestrator) StartSubscriptionCheckout(ctx context.Context, priceRef, planName string, identity entity.Identity) (string, error) {
	email := strings.TrimSpace(identity.Email)
	if identity.ID == "" || email == "" {
		return "", domain.ErrUnauthenticated
	}
	priceRef = strings.TrimSpace(priceRef)
	if priceRef == "" {
		return "", fmt.Errorf("%w: priceRef requerido", domain.ErrInvalidInput)
	}
	planName = strings.TrimSpace(planName)

	customerRef, err := o.resolveCustomer(ctx, identity, email)
	if err != nil {
		return "", err
	}

	metadata := map[string]string{MetadataUserID: identity.ID}
	if planName != "" {
		metadata[MetadataPlanName] = planName
	}
	session, err := o.gateway.CreateSubscriptionCheckout(ctx, CheckoutInput{
		CustomerRef: customerRef,
		PriceRef:    priceRef,
		SuccessURL:  withSessionPlaceholder(o.cfg.SuccessURL),
		CancelURL:   withSessionPlaceholder(o.cfg.CancelURL),
		Metadata:    metadata,
	})
	if err != nil {
		return "", err
	}
	log.Info().
		Str("user_id", identity.ID).
		Str("customer_id", customerRef).
		Str("session_id", session.ID).
		Str("plan", planName).
		Msg("checkout de suscripción creado")
	return session.URL, nil
}

// resolveCustomer reutiliza el cliente guardado en la empresa; si no hay, busca por email
// (gana el primero) y si tampoco existe lo crea etiquetado con el user_id.
// Buscar y luego crear no es atómico: dos solicitudes simultáneas para un email nuevo pueden
// crear dos clientes. El CAS sobre companies.billing_customer_ref deja uno solo guardado.
func (o *CheckoutOrchestrator) resolveCustomer(ctx context.Context, identity entity.Identity, email string) (string, error) {
	company, err := o.companyRepo.GetByOwner(ctx, identity.ID)
	if err != nil {
		return "", fmt.Errorf("buscar empresa del dueño %s: %w", identity.ID, err)
	}
	if company != nil && company.BillingCustomerRef != "" {
		return company.BillingCustomerRef, nil
	}

	customer, err := o.gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if customer == nil {
		customer, err = o.gateway.CreateCustomer(ctx, CustomerInput{
			Email:    email,
			Name:     identity.Name,
			Metadata: map[string]string{MetadataUserID: identity.ID},
		})
		if err != nil {
			return "", err
		}
		log.Info().Str("user_id", identity.ID).Str("customer_id", customer.ID).Msg("cliente de facturación creado")
	}
	if company == nil {
		return customer.ID, nil
	}

	swapped, err := o.companyRepo.SetBillingCustomerRefIfEmpty(ctx, company.ID, customer.ID)
	if err != nil {
		return "", fmt.Errorf("guardar cliente de facturación de %s: %w", company.ID, err)
	}
	if swapped {
		return customer.ID, nil
	}
	// Otra solicitud guardó un cliente primero: se usa el suyo.
	current, err := o.companyRepo.GetByID(ctx, company.ID)
	if err != nil {
		return "", fmt.Errorf("releer empresa %s: %w", company.ID, err)
	}
	if current != nil && current.BillingCustomerRef != "" {
		log.Warn().
			Str("company_id", company.ID).
			Str("kept", current.BillingCustomerRef).
			Str("discarded", customer.ID).
			Msg("carrera al guardar cliente de facturación")
		return current.BillingCustomerRef, nil
	}
	return customer.ID, nil
}

// StartBillingPortal devuelve la URL del portal de facturación. El cliente se toma del campo
// canónico de la empresa y, si está vacío, del campo heredado en la metadata del usuario.
func (o *CheckoutOrchestrator) StartBillingPortal(ctx context.Context, companyID, identityID string) (string, error) {
	customerRef, err := o.portalCustomer(ctx, companyID, identityID)
	if err != nil {
		return "", err
	}
	return o.gateway.CreatePortalSession(ctx, customerRef, o.cfg.PortalReturnURL)
}

func (o *CheckoutOrchestrator) portalCustomer(ctx context.Context, companyID, identityID string) (string, error) {
	if companyID != "" {
		company, err := o.companyRepo.GetByID(ctx, companyID)
		if err != nil {
			return "", fmt.Errorf("obtener empresa %s: %w", companyID, err)
		}
		if company != nil && company.BillingCustomerRef != "" {
			return company.BillingCustomerRef, nil
		}
	}
	if identityID != "" && o.directory != nil {
		md, err := o.directory.UserMetadata(ctx, identityID)
		if err != nil {
			return "", fmt.Errorf("leer metadata del usuario %s: %w", identityID, err)
		}
		if ref := strings.TrimSpace(md[LegacyCustomerRefKey]); ref != "" {
			return ref, nil
		}
	}
	return "", domain.ErrNoBillingCustomer
}

// withSessionPlaceholder agrega session_id={CHECKOUT_SESSION_ID} sin escapar las llaves.
func withSessionPlaceholder(u string) string {
	if strings.Contains(u, SessionPlaceholder) {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "session_id=" + SessionPlaceholder
}
