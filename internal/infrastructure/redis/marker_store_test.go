package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
	"github.com/jhoicas/Suscripciones-api/internal/infrastructure/redis"
)

func newStore(t *testing.T, ttl time.Duration) (*redis.MarkerStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewMarkerStore(client, "test:", ttl), mr
}

func marker(key string) repository.NotificationMarker {
	return repository.NotificationMarker{
		Key: key, Email: "ana@example.com", PaymentRef: "pi_1", SourceEventID: "evt_1",
		Amount: decimal.RequireFromString("49.90"),
	}
}

// Caso 1: el primer Claim gana; el segundo ve el marcador existente.
func TestMarkerStore_ClaimUnaVez(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	ok, err := store.Claim(ctx, marker("payment:pi_1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, marker("payment:pi_1"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, mr.Exists("test:payment:pi_1"))
	assert.Equal(t, time.Hour, mr.TTL("test:payment:pi_1"))
}

// Caso 2: Release permite reclamar de nuevo.
func TestMarkerStore_Release(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Claim(ctx, marker("event:evt_1"))
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "event:evt_1"))

	ok, err := store.Claim(ctx, marker("event:evt_1"))
	require.NoError(t, err)
	assert.True(t, ok)
}

// Caso 3: el marcador expira con el TTL.
func TestMarkerStore_Expira(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Claim(ctx, marker("payment:pi_9"))
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	ok, err := store.Claim(ctx, marker("payment:pi_9"))
	require.NoError(t, err)
	assert.True(t, ok)
}

// Caso 4: Redis caído → error.
func TestMarkerStore_RedisCaido(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	mr.Close()
	_, err := store.Claim(context.Background(), marker("payment:pi_x"))
	assert.Error(t, err)
}
