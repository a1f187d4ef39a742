// Package metrics registra las métricas Prometheus del núcleo de facturación.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequestsTotal webhooks recibidos por tipo de evento y status HTTP.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suscripciones",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Webhooks de facturación por tipo de evento y status HTTP.",
	}, []string{"event_type", "status"})

	// WebhookDuration latencia de procesamiento de webhooks.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "suscripciones",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Duración del procesamiento de webhooks en segundos.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// NotificationsTotal resultado del despachador: sent, duplicate, skipped, failed.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suscripciones",
		Subsystem: "billing",
		Name:      "notifications_total",
		Help:      "Emails de fin de registro por resultado.",
	}, []string{"result"})

	// InvoiceEmailFallbackTotal facturas cuyo email se tomó del nombre visible del cliente.
	InvoiceEmailFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "suscripciones",
		Subsystem: "billing",
		Name:      "invoice_email_display_name_fallback_total",
		Help:      "Facturas sin customer_email donde se usó customer_name.",
	})

	// StatusSyncTotal resultado de la sincronización de estado: applied, stale, unmatched.
	StatusSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suscripciones",
		Subsystem: "billing",
		Name:      "status_sync_total",
		Help:      "Eventos de ciclo de vida de suscripción por resultado.",
	}, []string{"result"})
)
