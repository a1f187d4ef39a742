package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Suscripciones-api/internal/application/auth"
	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
	"github.com/jhoicas/Suscripciones-api/internal/application/notification"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
	infraemail "github.com/jhoicas/Suscripciones-api/internal/infrastructure/email"
	infraidentity "github.com/jhoicas/Suscripciones-api/internal/infrastructure/identity"
	infrapdf "github.com/jhoicas/Suscripciones-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Suscripciones-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Suscripciones-api/internal/infrastructure/redis"
	infrastripe "github.com/jhoicas/Suscripciones-api/internal/infrastructure/stripe"
	httpRouter "github.com/jhoicas/Suscripciones-api/internal/interfaces/http"
	"github.com/jhoicas/Suscripciones-api/pkg/config"
	"github.com/jhoicas/Suscripciones-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	if cfg.App.Migrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.PoolOptions{AppName: cfg.App.Name})
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	employeeRepo := postgres.NewEmployeeRepository(pool)

	// Marcadores de notificación: PostgreSQL por defecto, Redis si se configura.
	var markers repository.NotificationMarkerRepository = postgres.NewNotificationMarkerRepository(pool)
	if cfg.Notify.MarkerBackend == "redis" {
		rdb, err := infraredis.NewClient(ctx, infraredis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		markers = infraredis.NewMarkerStore(rdb, "", cfg.Notify.MarkerTTL)
	}

	gateway := infrastripe.NewGateway(infrastripe.Config{
		SecretKey:         cfg.Stripe.SecretKey,
		Timeout:           cfg.Stripe.Timeout,
		MaxNetworkRetries: int64(cfg.Stripe.MaxNetworkRetries),
	})
	var directory billing.IdentityDirectory
	if cfg.Identity.URL != "" && cfg.Identity.ServiceKey != "" {
		directory = infraidentity.NewSupabaseDirectory(cfg.Identity.URL, cfg.Identity.ServiceKey)
	}

	var mailer notification.Mailer = infraemail.LogSender{}
	if cfg.Email.PostmarkToken != "" {
		mailer = infraemail.NewPostmarkSender(cfg.Email.PostmarkURL, cfg.Email.PostmarkToken)
	} else {
		log.Warn().Msg("POSTMARK_SERVER_TOKEN vacío: los emails solo se registran en el log")
	}
	var receipts notification.ReceiptRenderer
	if cfg.Notify.AttachReceipt {
		receipts = infrapdf.NewReceiptGenerator(cfg.Email.ProductName)
	}
	dispatcher := notification.NewDispatcher(markers, mailer, receipts, notification.Config{
		From:        cfg.Email.From,
		RegisterURL: cfg.Email.RegisterURL,
		ProductName: cfg.Email.ProductName,
	})

	statusSync := billing.NewStatusSyncUseCase(companyRepo, gateway)
	webhookUC := billing.NewWebhookUseCase(
		billing.NewNormalizer(gateway, cfg.Stripe.DefaultPlanName),
		statusSync,
		dispatcher,
	)
	checkout := billing.NewCheckoutOrchestrator(companyRepo, gateway, directory, billing.CheckoutConfig{
		SuccessURL:      cfg.Checkout.SuccessURL,
		CancelURL:       cfg.Checkout.CancelURL,
		PortalReturnURL: cfg.Checkout.PortalReturnURL,
	})

	entitlements := auth.NewEntitlementResolver(companyRepo, employeeRepo)
	permissions := auth.NewPermissionResolver(employeeRepo)
	authUC := auth.NewAuthUseCase(entitlements, permissions)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Suscripciones API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:          authUC,
		Entitlements:    entitlements,
		Permissions:     permissions,
		Checkout:        checkout,
		PaymentVerifier: billing.NewPaymentVerifier(gateway),
		CustomerUC:      billing.NewCustomerUseCase(gateway),
		Webhooks:        webhookUC,
		EventVerifier:   infrastripe.NewSignatureVerifier(cfg.Stripe.WebhookSecret),
		SignatureHeader: infrastripe.SignatureHeader,
		JWTSecret:       cfg.Identity.JWTSecret,
		SessionCookie:   cfg.Identity.CookieName,
		RequestTimeout:  cfg.HTTP.RequestTimeout,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
