package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/infrastructure/postgres"
	infrastripe "github.com/jhoicas/Suscripciones-api/internal/infrastructure/stripe"
	"github.com/jhoicas/Suscripciones-api/pkg/config"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("configuración no cargada")
	}
	return cfg, nil
}

// resyncer lo implementa *billing.StatusSyncUseCase.
type resyncer interface {
	Resync(ctx context.Context, companyID string) (entity.SubscriptionStatus, error)
}

// openResyncer arma el caso de uso real; close libera el pool.
func openResyncer(ctx context.Context) (resyncer, func(), error) {
	cfg, err := configFrom(ctx)
	if err != nil {
		return nil, nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.PoolOptions{AppName: "billingctl", MaxConns: 2})
	if err != nil {
		return nil, nil, err
	}
	gateway := infrastripe.NewGateway(infrastripe.Config{
		SecretKey:         cfg.Stripe.SecretKey,
		Timeout:           cfg.Stripe.Timeout,
		MaxNetworkRetries: int64(cfg.Stripe.MaxNetworkRetries),
	})
	uc := billing.NewStatusSyncUseCase(postgres.NewCompanyRepository(pool), gateway)
	return uc, pool.Close, nil
}

func newSyncStatusCmd(open func(context.Context) (resyncer, func(), error)) *cobra.Command {
	var (
		companyIDs []string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sync-status",
		Short: "Relee la suscripción vigente en el proveedor y actualiza el estado de la empresa",
		Long: `Relee la suscripción más reciente del cliente de facturación de cada empresa
y aplica el mismo mapeo de estados que los webhooks. Sirve para reparar empresas
cuyo evento de ciclo de vida se perdió.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(companyIDs) == 0 {
				return errors.New("indicar al menos una --company")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			uc, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}

			failed := 0
			for _, id := range companyIDs {
				status, err := uc.Resync(ctx, id)
				switch {
				case errors.Is(err, domain.ErrNotFound):
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tno existe\n", id)
					failed++
				case errors.Is(err, domain.ErrNoBillingCustomer):
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tsin cliente de facturación\n", id)
					failed++
				case err != nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\terror: %v\n", id, err)
					failed++
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, status)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d de %d empresas sin sincronizar", failed, len(companyIDs))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&companyIDs, "company", nil, "ID de empresa (repetible)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "límite total de la operación")
	return cmd
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones pendientes de la base",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configFrom(cmd.Context())
		if err != nil {
			return err
		}
		return postgres.Migrate(cfg.DB.ConnectionString())
	},
}
