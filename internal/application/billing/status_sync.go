package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entitlement"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
	"github.com/jhoicas/Suscripciones-api/internal/infrastructure/metrics"
)

// StatusSyncUseCase único camino que escribe companies.subscription_status.
type StatusSyncUseCase struct {
	companyRepo repository.CompanyRepository
	gateway     BillingGateway
	now         func() time.Time
}

// NewStatusSyncUseCase construye el caso de uso.
func NewStatusSyncUseCase(companyRepo repository.CompanyRepository, gateway BillingGateway) *StatusSyncUseCase {
	return &StatusSyncUseCase{
		companyRepo: companyRepo,
		gateway:     gateway,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Apply aplica un cambio de ciclo de vida a la empresa dueña del cliente.
// Busca por customer ref y, si no hay, por el user_id de la metadata (dueño). Si la empresa
// aún no existe (el dueño registra después de pagar) se confirma el evento sin escribir.
//
// El estado del evento puede estar desactualizado (el proveedor no garantiza orden y el
// campo created tiene resolución de segundos), así que se relee la suscripción y se
// aplica el estado vigente con el instante de la lectura.
func (uc *StatusSyncUseCase) Apply(ctx context.Context, s StatusSync) error {
	company, err := uc.findCompany(ctx, s)
	if err != nil {
		return err
	}
	if company == nil {
		metrics.StatusSyncTotal.WithLabelValues("unmatched").Inc()
		log.Warn().
			Str("event_id", s.EventID).
			Str("customer_id", s.CustomerRef).
			Str("user_id", s.IdentityID).
			Msg("sync de suscripción sin empresa asociada, se ignora")
		return nil
	}

	if !s.Authoritative {
		if s, err = uc.refresh(ctx, s); err != nil {
			return err
		}
		if !tracks(company, s) {
			metrics.StatusSyncTotal.WithLabelValues("other_subscription").Inc()
			log.Info().
				Str("event_id", s.EventID).
				Str("company_id", company.ID).
				Str("subscription_id", s.SubscriptionRef).
				Str("tracked_subscription_id", company.SubscriptionRef).
				Str("status", string(s.Status)).
				Msg("evento de otra suscripción del cliente, se conserva la vigente")
			return nil
		}
	}

	if !s.KnownStatus {
		log.Warn().
			Str("company_id", company.ID).
			Str("provider_status", s.ProviderStatus).
			Msg("estado de suscripción desconocido, se guarda como none")
	}

	planName := s.PlanName
	if planName == "" {
		planName = company.PlanName
	}
	applied, err := uc.companyRepo.UpdateSubscriptionStatus(ctx, company.ID, repository.SubscriptionUpdate{
		SubscriptionRef: s.SubscriptionRef,
		Status:          s.Status,
		PlanName:        planName,
		ObservedAt:      s.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("actualizar estado de suscripción de %s: %w", company.ID, err)
	}
	if !applied {
		metrics.StatusSyncTotal.WithLabelValues("stale").Inc()
		log.Info().
			Str("event_id", s.EventID).
			Str("company_id", company.ID).
			Time("occurred_at", s.OccurredAt).
			Msg("evento de suscripción fuera de orden, se ignora")
		return nil
	}

	metrics.StatusSyncTotal.WithLabelValues("applied").Inc()
	log.Info().
		Str("event_id", s.EventID).
		Str("company_id", company.ID).
		Str("subscription_id", s.SubscriptionRef).
		Str("status", string(s.Status)).
		Str("plan", planName).
		Msg("estado de suscripción actualizado")
	return nil
}

// refresh reemplaza el estado del evento por el que el proveedor reporta ahora.
// Si la suscripción ya no existe se usa el del evento.
func (uc *StatusSyncUseCase) refresh(ctx context.Context, s StatusSync) (StatusSync, error) {
	if s.SubscriptionRef == "" {
		return s, nil
	}
	observedAt := uc.now()
	sub, err := uc.gateway.GetSubscription(ctx, s.SubscriptionRef)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().
			Str("event_id", s.EventID).
			Str("subscription_id", s.SubscriptionRef).
			Msg("suscripción no encontrada al releer, se usa el estado del evento")
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("releer suscripción %s: %w", s.SubscriptionRef, err)
	}
	s.ProviderStatus = sub.Status
	s.Status, s.KnownStatus = entitlement.MapProviderStatus(sub.Status)
	if p := strings.TrimSpace(sub.Metadata[MetadataPlanName]); p != "" {
		s.PlanName = p
	}
	s.OccurredAt = observedAt
	return s, nil
}

// tracks decide si el cambio de una suscripción puede escribir el estado de la empresa.
// Otra suscripción del mismo cliente solo reemplaza a la vigente si da acceso o si la
// vigente ya no lo da (un checkout abandonado no bloquea una suscripción activa).
func tracks(company *entity.Company, s StatusSync) bool {
	if company.SubscriptionRef == "" || s.SubscriptionRef == "" || company.SubscriptionRef == s.SubscriptionRef {
		return true
	}
	return entitlement.IsEntitled(s.Status) || !entitlement.IsEntitled(company.SubscriptionStatus)
}

func (uc *StatusSyncUseCase) findCompany(ctx context.Context, s StatusSync) (*entity.Company, error) {
	if s.CustomerRef != "" {
		company, err := uc.companyRepo.GetByBillingCustomerRef(ctx, s.CustomerRef)
		if err != nil {
			return nil, fmt.Errorf("buscar empresa por cliente %s: %w", s.CustomerRef, err)
		}
		if company != nil {
			return company, nil
		}
	}
	if s.IdentityID == "" {
		return nil, nil
	}
	company, err := uc.companyRepo.GetByOwner(ctx, s.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("buscar empresa por dueño %s: %w", s.IdentityID, err)
	}
	if company != nil && s.CustomerRef != "" && company.BillingCustomerRef == "" {
		if _, err := uc.companyRepo.SetBillingCustomerRefIfEmpty(ctx, company.ID, s.CustomerRef); err != nil {
			return nil, fmt.Errorf("guardar cliente de facturación de %s: %w", company.ID, err)
		}
		company.BillingCustomerRef = s.CustomerRef
	}
	return company, nil
}

// Resync relee las suscripciones del cliente en el proveedor y aplica a la empresa la que
// da acceso (la más reciente) o, si ninguna lo da, la más reciente.
// Sirve para reconciliar eventos perdidos (ver cmd/billingctl).
func (uc *StatusSyncUseCase) Resync(ctx context.Context, companyID string) (entity.SubscriptionStatus, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return "", fmt.Errorf("obtener empresa %s: %w", companyID, err)
	}
	if company == nil {
		return "", domain.ErrNotFound
	}
	if company.BillingCustomerRef == "" {
		return "", domain.ErrNoBillingCustomer
	}

	observedAt := uc.now()
	subs, err := uc.gateway.ListSubscriptions(ctx, company.BillingCustomerRef)
	if err != nil {
		return "", err
	}
	s := StatusSync{
		EventID:       "resync",
		CustomerRef:   company.BillingCustomerRef,
		Status:        entity.SubscriptionNone,
		KnownStatus:   true,
		OccurredAt:    observedAt,
		Authoritative: true,
	}
	if sub := pickSubscription(subs); sub != nil {
		s.SubscriptionRef = sub.ID
		s.ProviderStatus = sub.Status
		s.Status, s.KnownStatus = entitlement.MapProviderStatus(sub.Status)
		s.PlanName = sub.Metadata[MetadataPlanName]
	}
	if err := uc.Apply(ctx, s); err != nil {
		return "", err
	}
	return s.Status, nil
}

// pickSubscription primera suscripción que da acceso; si no hay, la primera (más reciente).
func pickSubscription(subs []*Subscription) *Subscription {
	for _, sub := range subs {
		if status, _ := entitlement.MapProviderStatus(sub.Status); entitlement.IsEntitled(status) {
			return sub
		}
	}
	if len(subs) > 0 {
		return subs[0]
	}
	return nil
}
