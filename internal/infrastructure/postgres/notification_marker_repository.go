package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

var _ repository.NotificationMarkerRepository = (*NotificationMarkerRepo)(nil)

// NotificationMarkerRepo marcadores de notificación sobre la PK de notification_markers.
type NotificationMarkerRepo struct {
	pool *pgxpool.Pool
}

// NewNotificationMarkerRepository construye el adaptador.
func NewNotificationMarkerRepository(pool *pgxpool.Pool) *NotificationMarkerRepo {
	return &NotificationMarkerRepo{pool: pool}
}

// Claim inserta el marcador; la violación de la clave única indica que otra entrega ya lo tomó.
func (r *NotificationMarkerRepo) Claim(ctx context.Context, m repository.NotificationMarker) (bool, error) {
	query := `
		INSERT INTO notification_markers (key, id, email, payment_ref, source_event_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (key) DO NOTHING`
	tag, err := r.pool.Exec(ctx, query,
		m.Key, uuid.NewString(), m.Email, nullIfEmpty(m.PaymentRef), nullIfEmpty(m.SourceEventID), m.Amount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim notification marker: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release elimina el marcador.
func (r *NotificationMarkerRepo) Release(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM notification_markers WHERE key = $1`, key); err != nil {
		return fmt.Errorf("release notification marker: %w", err)
	}
	return nil
}
