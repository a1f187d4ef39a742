// Package redis implementa el marcador de notificaciones sobre Redis (SET NX con TTL).
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

const defaultKeyPrefix = "billing:notification:"

// Config conexión a Redis.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MarkerStore implementa repository.NotificationMarkerRepository para despliegues con varias
// réplicas que comparten Redis. El TTL acota cuánto tiempo se recuerda un envío.
type MarkerStore struct {
	client    *goredis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ repository.NotificationMarkerRepository = (*MarkerStore)(nil)

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// NewMarkerStore construye el store. ttl <= 0 usa 30 días.
func NewMarkerStore(client *goredis.Client, keyPrefix string, ttl time.Duration) *MarkerStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &MarkerStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

type markerValue struct {
	Email         string `json:"email"`
	PaymentRef    string `json:"payment_ref,omitempty"`
	SourceEventID string `json:"source_event_id,omitempty"`
	Amount        string `json:"amount"`
	ClaimedAt     string `json:"claimed_at"`
}

// Claim SET NX atómico: true si esta llamada creó el marcador.
func (s *MarkerStore) Claim(ctx context.Context, m repository.NotificationMarker) (bool, error) {
	val, err := json.Marshal(markerValue{
		Email:         m.Email,
		PaymentRef:    m.PaymentRef,
		SourceEventID: m.SourceEventID,
		Amount:        m.Amount.String(),
		ClaimedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("redis: serializar marcador: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.keyPrefix+m.Key, val, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: reclamar marcador %s: %w", m.Key, err)
	}
	return ok, nil
}

// Release borra el marcador.
func (s *MarkerStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis: liberar marcador %s: %w", key, err)
	}
	return nil
}
